package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/config/builders"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/model"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/logging"
	"github.com/rushteam/bookrec/recommend"
	"github.com/rushteam/bookrec/store"
	"github.com/rushteam/bookrec/vectorize"
)

// app 是一次命令执行期间共享的依赖。
type app struct {
	settings *config.Settings
	logger   zerolog.Logger
	kv       core.KeyValueStore
	repo     *store.Repository
	engine   *recommend.Engine
	registry *prometheus.Registry
}

type rootFlags struct {
	config  string
	seed    string
	metrics bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:           "bookrec",
		Short:         "content-based book recommendations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `
bookrec turns book metadata into TF-IDF vectors, builds per-user preference
profiles from interaction history and ranks recommendations with a popularity
fallback for users without history.

With the default in-memory store every invocation starts empty; pass --seed to
load books and interactions first, or point store.backend at redis.
`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if flags.metrics {
				if err := a.dumpMetrics(cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			return a.close()
		},
	}

	root.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "settings file (yaml)")
	root.PersistentFlags().StringVar(&flags.seed, "seed", "", "seed file with books and interactions (yaml)")
	root.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "print prometheus metrics to stderr on exit")

	root.AddCommand(
		newSeedCmd(a, &flags),
		newRecommendCmd(a),
		newSimilarCmd(a),
		newProfileCmd(a),
		newStatsCmd(a),
		newPopularCmd(a),
		newInteractCmd(a),
		newRefreshCmd(a),
	)
	return root
}

func (a *app) init(ctx context.Context, flags rootFlags) error {
	settings, err := config.Load(flags.config)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = logging.New(settings.Log)

	switch settings.Store.Backend {
	case "redis":
		rs, err := store.NewRedisStore(ctx, settings.Store.RedisAddr, settings.Store.RedisPassword, settings.Store.RedisDB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.kv = rs
	default:
		a.kv = store.NewMemoryStore()
	}
	a.repo = store.NewRepository(a.kv,
		store.WithKeyPrefix(settings.Store.KeyPrefix),
		store.WithViewDedupWindow(settings.Store.ViewDedupWindow),
	)

	if flags.seed != "" {
		n, err := loadSeed(ctx, a.repo, flags.seed)
		if err != nil {
			return err
		}
		a.logger.Debug().Str("file", flags.seed).Int("books", n.books).Int("interactions", n.interactions).Msg("seed loaded")
	}

	ext, err := a.extensions()
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	vec := vectorize.DefaultOptions()
	vec.MaxFeatures = settings.Model.MaxFeatures
	vec.MaxN = settings.Model.MaxNGram
	vec.MinDF = settings.Model.MinDF
	vec.MaxDF = settings.Model.MaxDF

	a.engine, err = recommend.NewEngine(a.repo, a.repo,
		recommend.WithLogger(a.logger),
		recommend.WithMetrics(recommend.NewMetrics(a.registry)),
		recommend.WithPolicy(settings.Recommend.Policy),
		recommend.WithWeights(settings.Profile),
		recommend.WithExtensions(ext),
		recommend.WithModelOptions(
			model.WithVectorizer(vec),
			model.WithWorkers(settings.Model.Workers),
			model.WithMaxStaleness(settings.Model.MaxStaleness),
		),
	)
	return err
}

// extensions 加载扩展节点配置；filter.blacklist 可以读取当前 Store 中的黑名单。
func (a *app) extensions() (*pipeline.Pipeline, error) {
	if a.settings.Pipeline == "" {
		return nil, nil
	}
	config.Register("filter.blacklist", builders.BlacklistNodeBuilder(a.kv))

	cfg, err := pipeline.LoadFromYAML(a.settings.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", a.settings.Pipeline, err)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("pipeline", cfg.Pipeline.Name).Int("nodes", len(p.Nodes)).Msg("extensions loaded")
	return p, nil
}

func (a *app) dumpMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() error {
	if a.kv == nil {
		return nil
	}
	return a.kv.Close()
}

func userFlag(cmd *cobra.Command, id *int64) {
	cmd.Flags().Int64VarP(id, "user", "u", 0, "user id")
	_ = cmd.MarkFlagRequired("user")
}
