package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/bookrec/pkg/logging"
	"github.com/rushteam/bookrec/profile"
	"github.com/rushteam/bookrec/rank"
)

// EnvPrefix 是环境变量前缀。层级用双下划线分隔：
// BOOKREC_STORE__BACKEND=redis -> store.backend
const EnvPrefix = "BOOKREC_"

// Settings 是引擎与 CLI 的运行配置。
type Settings struct {
	Log       logging.Config    `koanf:"log"`
	Store     StoreSettings     `koanf:"store"`
	Model     ModelSettings     `koanf:"model"`
	Profile   profile.Weights   `koanf:"profile"`
	Recommend RecommendSettings `koanf:"recommend"`

	// Pipeline 是扩展节点配置文件路径（可选）
	Pipeline string `koanf:"pipeline"`
}

// StoreSettings 是存储配置。
type StoreSettings struct {
	Backend         string        `koanf:"backend" validate:"oneof=memory redis"`
	RedisAddr       string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword   string        `koanf:"redis_password"`
	RedisDB         int           `koanf:"redis_db" validate:"gte=0"`
	KeyPrefix       string        `koanf:"key_prefix" validate:"required"`
	ViewDedupWindow time.Duration `koanf:"view_dedup_window" validate:"gte=0"`
}

// ModelSettings 是向量化与模型刷新配置。
type ModelSettings struct {
	MaxFeatures  int           `koanf:"max_features" validate:"gt=0"`
	MaxNGram     int           `koanf:"max_ngram" validate:"gte=1,lte=3"`
	MinDF        int           `koanf:"min_df" validate:"gte=1"`
	MaxDF        float64       `koanf:"max_df" validate:"gt=0,lte=1"`
	Workers      int           `koanf:"workers" validate:"gte=0"`
	MaxStaleness time.Duration `koanf:"max_staleness" validate:"gte=0"`
}

// RecommendSettings 是打分策略与数量上限。
type RecommendSettings struct {
	Policy rank.Policy `koanf:"policy"`

	DefaultCount int `koanf:"default_count" validate:"gte=1,ltefield=MaxCount"`
	MaxCount     int `koanf:"max_count" validate:"gte=1"`
}

// DefaultSettings 返回默认配置。
func DefaultSettings() Settings {
	return Settings{
		Log: logging.Config{Level: "info", Format: "json"},
		Store: StoreSettings{
			Backend:         "memory",
			RedisAddr:       "localhost:6379",
			KeyPrefix:       "bookrec",
			ViewDedupWindow: 5 * time.Minute,
		},
		Model: ModelSettings{
			MaxFeatures: 5000,
			MaxNGram:    2,
			MinDF:       1,
			MaxDF:       1.0,
		},
		Profile: profile.DefaultWeights(),
		Recommend: RecommendSettings{
			Policy:       rank.DefaultPolicy(),
			DefaultCount: 10,
			MaxCount:     50,
		},
	}
}

// Load 按 默认值 → YAML 文件（path 非空时）→ BOOKREC_* 环境变量 的顺序叠加配置并校验。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	s := &Settings{}
	if err := k.UnmarshalWithConf("", s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段约束以及打分权重之和。
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %s: failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("validate settings: %w", err)
	}
	if err := s.Recommend.Policy.Validate(); err != nil {
		return err
	}
	return nil
}
