// Package bookrec 是一个基于内容的图书推荐引擎。
//
// 设计要点：
// - Snapshot-first: 语料 → TF-IDF → 相似度矩阵 构成一版不可变快照，原子发布，读者永远看到完整的一版
// - Pipeline-first: 推荐链路通过 Node 串联（Recall → Filter → Rank → ReRank），运营可用 YAML 挂载扩展节点
// - Labels-first: 推荐理由等以 label 透传，可解释、可观测
//
// 入口见 recommend.Engine 与 cmd/bookrec。
package bookrec

import (
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recommend"
)

// 轻量 facade：便于直接 import "bookrec" 使用核心抽象。
type (
	Engine   = recommend.Engine
	Option   = recommend.Option
	Policy   = recommend.Policy
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

var (
	NewEngine     = recommend.NewEngine
	DefaultPolicy = recommend.DefaultPolicy
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
