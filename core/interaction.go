package core

import (
	"strconv"
	"strings"
)

// Interaction 是一次观测到的用户-物品交互（如一次购买）。
// UserID / ItemID 是不透明的原始标识，Weight 是交互强度（如购买次数）。
type Interaction struct {
	UserID string  `json:"user_id"`
	ItemID string  `json:"item_id"`
	Weight float64 `json:"weight"`
}

// Table 是交互记录表。
//
// RowIDs 记录每一行在源表中的位置；切分、过滤得到的子表保留源表位置，
// 便于校验子集互斥、并集完整。
type Table struct {
	Rows   []Interaction
	RowIDs []int
}

// NewTable 用给定记录创建一张源表，RowIDs 为 0..n-1。
func NewTable(rows []Interaction) *Table {
	ids := make([]int, len(rows))
	for i := range ids {
		ids[i] = i
	}
	return &Table{Rows: rows, RowIDs: ids}
}

// Len 返回行数；nil 表视为空表。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Subset 按位置（相对本表）选取若干行，保留源表位置。
func (t *Table) Subset(positions []int) *Table {
	out := &Table{
		Rows:   make([]Interaction, 0, len(positions)),
		RowIDs: make([]int, 0, len(positions)),
	}
	for _, p := range positions {
		out.Rows = append(out.Rows, t.Rows[p])
		out.RowIDs = append(out.RowIDs, t.rowID(p))
	}
	return out
}

// Filter 返回 keep 为 true 的行组成的子表。
func (t *Table) Filter(keep func(Interaction) bool) *Table {
	positions := make([]int, 0, t.Len())
	for i, row := range t.Rows {
		if keep(row) {
			positions = append(positions, i)
		}
	}
	return t.Subset(positions)
}

// UserIDs 返回每一行的用户标识（含重复）。
func (t *Table) UserIDs() []string {
	out := make([]string, t.Len())
	for i, row := range t.Rows {
		out[i] = row.UserID
	}
	return out
}

// ItemIDs 返回每一行的物品标识（含重复）。
func (t *Table) ItemIDs() []string {
	out := make([]string, t.Len())
	for i, row := range t.Rows {
		out[i] = row.ItemID
	}
	return out
}

// Weights 返回去重后的交互权重值，顺序为首次出现顺序。
func (t *Table) Weights() []float64 {
	seen := make(map[float64]struct{})
	out := make([]float64, 0)
	for _, row := range t.Rows {
		if _, ok := seen[row.Weight]; ok {
			continue
		}
		seen[row.Weight] = struct{}{}
		out = append(out, row.Weight)
	}
	return out
}

func (t *Table) rowID(p int) int {
	if len(t.RowIDs) == len(t.Rows) {
		return t.RowIDs[p]
	}
	return p
}

// CompareID 是原始标识的全序比较函数。
//   - 两个都能解析为整数：按数值比较（"9" < "10"）
//   - 整数标识排在非整数标识之前
//   - 其他情况按字节序比较
func CompareID(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		// "007" 与 "7" 数值相等，按字节序区分，保证全序
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
