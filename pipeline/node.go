package pipeline

import (
	"context"

	"github.com/rushteam/youchoose/core"
)

// Kind 标记 Node 所处的阶段，用于日志与编排。
type Kind string

const (
	KindRecall Kind = "recall" // 召回：按隐向量生成候选集
	KindFilter Kind = "filter" // 过滤：剔除已交互或不满足表达式的候选
	KindReRank Kind = "rerank" // 重排：截断、调整最终顺序
)

// Node 是 Pipeline 的最小单元，统一为 "输入 items -> 输出 items"。
// 召回 Node 通常忽略输入，直接生成候选。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
