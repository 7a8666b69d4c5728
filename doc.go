// Package youchoose 是一个协同过滤推荐工具包。
//
// 离线：交互表（CSV / SQL）→ dataset（索引、切分、负采样、批量加载）→ model（nn / als 训练）
// → recall.StoreMFAdapter 把隐向量发布到 store。
//
// 在线：Pipeline 串联 recall → filter → rerank，按原始用户标识返回 TopN 物品。
package youchoose

import (
	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
	"github.com/rushteam/youchoose/model"
	"github.com/rushteam/youchoose/pipeline"
)

// 轻量 facade：便于直接 import "youchoose" 使用核心抽象。
type (
	Interaction = core.Interaction
	Table       = core.Table
	Recommender = model.Recommender
	Loaders     = dataset.Loaders
	Pipeline    = pipeline.Pipeline
	Node        = pipeline.Node
	Kind        = pipeline.Kind
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

// NewTable 用交互记录创建一张源表。
func NewTable(rows []Interaction) *Table { return core.NewTable(rows) }

// RatingsDataloader 切分交互表并构建训练/验证/测试三个 loader。
func RatingsDataloader(t *Table, opts ...dataset.RatingsOption) (*Loaders, error) {
	return dataset.RatingsDataloader(t, opts...)
}

// NewModel 按方法名（nn / als）创建模型。
func NewModel(method string, opts model.Options) (Recommender, error) {
	return model.New(method, opts)
}
