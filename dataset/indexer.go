// Package dataset 把交互表转换为可训练的样本流：
// 标识索引 → 用户交互集合 → 训练/验证/测试切分 → 负采样 → 批量加载。
package dataset

import (
	"cmp"
	"slices"

	"github.com/rushteam/youchoose/core"
)

// Index 是原始标识与稠密下标 [0, N) 之间的双射。
// 下标按原始标识的排序顺序分配，相同输入总是得到相同映射。
type Index[K comparable] struct {
	ids []K
	pos map[K]int
}

// NewIndex 对可排序标识建立索引（允许重复，空输入得到 Len()==0 的索引）。
func NewIndex[K cmp.Ordered](ids []K) *Index[K] {
	return NewIndexFunc(ids, cmp.Compare[K])
}

// NewIndexFunc 使用自定义比较函数建立索引，例如 core.CompareID。
func NewIndexFunc[K comparable](ids []K, compare func(a, b K) int) *Index[K] {
	seen := make(map[K]struct{}, len(ids))
	distinct := make([]K, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	slices.SortFunc(distinct, compare)

	pos := make(map[K]int, len(distinct))
	for i, id := range distinct {
		pos[id] = i
	}
	return &Index[K]{ids: distinct, pos: pos}
}

// NewIDIndex 对原始字符串标识建立索引，排序规则为 core.CompareID。
func NewIDIndex(ids []string) *Index[string] {
	return NewIndexFunc(ids, core.CompareID)
}

// Len 返回不同标识的数量。
func (x *Index[K]) Len() int { return len(x.ids) }

// Lookup 返回标识对应的下标。
func (x *Index[K]) Lookup(id K) (int, bool) {
	i, ok := x.pos[id]
	return i, ok
}

// ID 返回下标对应的原始标识。
func (x *Index[K]) ID(i int) K { return x.ids[i] }

// IDs 返回按下标排列的原始标识副本。
func (x *Index[K]) IDs() []K { return slices.Clone(x.ids) }

// Map 返回 标识 → 下标 映射的副本。
func (x *Index[K]) Map() map[K]int {
	out := make(map[K]int, len(x.pos))
	for k, v := range x.pos {
		out[k] = v
	}
	return out
}

// Indices 把一组标识转换为下标；遇到未索引的标识返回 NOT_FOUND。
func (x *Index[K]) Indices(ids []K) ([]int, error) {
	out := make([]int, len(ids))
	for i, id := range ids {
		p, ok := x.pos[id]
		if !ok {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeNotFound, "dataset: id %v not in index", id)
		}
		out[i] = p
	}
	return out, nil
}
