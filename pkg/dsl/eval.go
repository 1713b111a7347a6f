package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("book", cel.DynType),
		cel.Variable("item", cel.DynType),
		cel.Variable("user", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的候选规则表达式，使用 CEL (Common Expression Language)。
// 编译一次，可并发多次求值。
//
// 可用变量：
//   - book：id / owner_id / title / author / category / condition / description / isbn / available
//   - item：id / score / labels（label 名 → value）
//   - user：id / interaction_count / categories / authors
//
// 示例：
//   - `book.condition != "poor"`
//   - `book.category in ["Fiction", "Science"]`
//   - `item.score >= 0.2 && book.description != ""`
//   - `user.interaction_count > 3 || book.condition == "new"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 解析并编译表达式。空表达式返回 nil, nil（表示恒为 true）。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Evaluate 对单个候选求值，返回布尔结果。nil Program 恒为 true。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil {
		return true, nil
	}
	if item == nil {
		return false, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的字段会报错，表达式里应先判断 != ""
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	book := map[string]any{}
	if b := item.Book; b != nil {
		book = map[string]any{
			"id":          b.ID,
			"owner_id":    b.OwnerID,
			"title":       b.Title,
			"author":      b.Author,
			"category":    b.Category,
			"condition":   string(b.Condition),
			"description": b.Description,
			"isbn":        b.ISBN,
			"available":   b.Available,
		}
	}

	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}
	it := map[string]any{
		"id":     item.ID,
		"score":  item.Score,
		"labels": labels,
	}

	user := map[string]any{
		"id":                int64(0),
		"interaction_count": int64(0),
		"categories":        map[string]float64{},
		"authors":           map[string]float64{},
	}
	if rctx != nil {
		user["id"] = rctx.UserID
		if p := rctx.Profile; p != nil {
			user["interaction_count"] = int64(p.InteractionCount)
			if p.Categories != nil {
				user["categories"] = p.Categories
			}
			if p.Authors != nil {
				user["authors"] = p.Authors
			}
		}
	}

	return map[string]any{
		"book": book,
		"item": it,
		"user": user,
	}
}
