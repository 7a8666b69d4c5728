package dsl

import (
	"github.com/google/cel-go/cel"

	"github.com/rushteam/youchoose/core"
)

// RowFilter 是编译好的交互行过滤表达式。
//
// 变量：
//   - row.user_id / row.item_id：字符串
//   - row.weight：double
//   - row.index：源表中的行位置（int）
//
// 示例：
//   - `row.weight >= 2`
//   - `row.user_id.startsWith("u") && row.item_id != "24852"`
//   - `row.index % 10 != 0`
type RowFilter struct {
	expr string
	prg  cel.Program
}

// CompileRowFilter 编译行过滤表达式；空表达式保留全部行。
func CompileRowFilter(expr string) (*RowFilter, error) {
	env, err := getRowEnv()
	prg, err := compile(env, err, expr)
	if err != nil {
		return nil, err
	}
	return &RowFilter{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式。
func (f *RowFilter) Expr() string { return f.expr }

// Match 判断一行是否保留；index 为该行在源表中的位置。
func (f *RowFilter) Match(row core.Interaction, index int) (bool, error) {
	return evalBool(f.prg, f.expr, map[string]any{
		"row": map[string]any{
			"user_id": row.UserID,
			"item_id": row.ItemID,
			"weight":  row.Weight,
			"index":   int64(index),
		},
	})
}

// FilterTable 返回满足表达式的行组成的子表，保留源表位置。
func FilterTable(t *core.Table, expr string) (*core.Table, error) {
	f, err := CompileRowFilter(expr)
	if err != nil {
		return nil, err
	}
	if f.prg == nil {
		return t, nil
	}
	positions := make([]int, 0, t.Len())
	for i, row := range t.Rows {
		id := i
		if len(t.RowIDs) == len(t.Rows) {
			id = t.RowIDs[i]
		}
		ok, err := f.Match(row, id)
		if err != nil {
			return nil, err
		}
		if ok {
			positions = append(positions, i)
		}
	}
	return t.Subset(positions), nil
}
