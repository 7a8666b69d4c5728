// Package rerank 提供召回与过滤之后的结果整理节点。
package rerank

import (
	"cmp"
	"context"
	"slices"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pipeline"
)

// TopNNode 截取前 N 个物品，通常放在 Pipeline 末尾。
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.MFRecall{Store: adapter, TopK: 100},
//	        &filter.FilterNode{Filters: []filter.Filter{&filter.SeenFilter{Store: adapter}}},
//	        &rerank.TopNNode{N: 10, Sort: true},
//	    },
//	}
type TopNNode struct {
	// N <= 0 时不截断
	N int

	// Sort 为 true 时先按分数降序排序（分数相同按 ID），用于合并多个召回源之后
	Sort bool
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Sort {
		items = slices.Clone(items)
		slices.SortStableFunc(items, func(a, b *core.Item) int {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
			return core.CompareID(a.ID, b.ID)
		})
	}
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
