package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/core"
)

type stage struct {
	name string
	kind Kind
	fn   func([]*core.Item) ([]*core.Item, error)
}

func (s *stage) Name() string { return s.name }
func (s *stage) Kind() Kind   { return s.kind }
func (s *stage) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return s.fn(items)
}

func TestPipeline_Run(t *testing.T) {
	recall := &stage{name: "r", kind: KindRecall, fn: func([]*core.Item) ([]*core.Item, error) {
		return []*core.Item{{ID: 1}, {ID: 2}, {ID: 3}}, nil
	}}
	drop := &stage{name: "f", kind: KindFilter, fn: func(items []*core.Item) ([]*core.Item, error) {
		return items[1:], nil
	}}
	p := &Pipeline{Nodes: []Node{recall, drop}}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, []Node{drop}, p.OfKind(KindFilter))
	assert.Empty(t, (*Pipeline)(nil).OfKind(KindFilter))
}

func TestPipeline_RunErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := &stage{name: "rank.broken", kind: KindRank, fn: func([]*core.Item) ([]*core.Item, error) { return nil, boom }}
	p := &Pipeline{Nodes: []Node{failing}}

	_, err := p.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "rank.broken")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: demo
  nodes:
    - type: keep
      config:
        n: 2
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Pipeline.Name)

	f := NewNodeFactory()
	f.Register("keep", func(c map[string]interface{}) (Node, error) {
		n := c["n"].(int)
		return &stage{name: "keep", kind: KindReRank, fn: func(items []*core.Item) ([]*core.Item, error) {
			return items[:n], nil
		}}, nil
	})
	p, err := cfg.BuildPipeline(f)
	require.NoError(t, err)
	out, err := p.Run(context.Background(), nil, []*core.Item{{ID: 1}, {ID: 2}, {ID: 3}})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = cfg.BuildPipeline(NewNodeFactory())
	assert.ErrorContains(t, err, "unknown node type")
}
