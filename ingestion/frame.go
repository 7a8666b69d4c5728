package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pkg/conv"
)

// Frame 是一次查询的结果：列名加按行存储的原始值。
type Frame struct {
	Columns []string
	Rows    [][]any
}

// Len 返回行数。
func (f *Frame) Len() int { return len(f.Rows) }

// Index 返回列名的位置，不存在返回 -1。
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (f *Frame) indices(names []string) ([]int, error) {
	out := make([]int, len(names))
	for j, name := range names {
		if out[j] = f.Index(name); out[j] < 0 {
			return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeInvalidInput,
				"ingestion: column %q not found (have %v)", name, f.Columns)
		}
	}
	return out, nil
}

// Interactions 按 cols 把 Frame 转为交互表；NULL 或无法转换的值返回 INVALID_INPUT。
func (f *Frame) Interactions(cols Columns) (*core.Table, error) {
	cols = cols.WithDefaults()
	idx, err := f.indices(cols.names())
	if err != nil {
		return nil, err
	}
	rows := make([]core.Interaction, 0, len(f.Rows))
	for r, row := range f.Rows {
		user, ok := conv.ToString(row[idx[0]])
		if !ok {
			return nil, badValue(r, cols.User, row[idx[0]])
		}
		item, ok := conv.ToString(row[idx[1]])
		if !ok {
			return nil, badValue(r, cols.Item, row[idx[1]])
		}
		w, ok := conv.ToFloat64(row[idx[2]])
		if !ok {
			return nil, badValue(r, cols.Weight, row[idx[2]])
		}
		rows = append(rows, core.Interaction{UserID: user, ItemID: item, Weight: w})
	}
	return core.NewTable(rows), nil
}

func badValue(row int, column string, v any) error {
	return core.Errorf(core.ModuleIngestion, core.ErrorCodeInvalidInput,
		"ingestion: row %d: cannot convert %s value %v (%T)", row, column, v, v)
}

// WriteCSV 写出带表头的 CSV；NULL 写为空串。
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("ingestion: write header: %w", err)
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for j, v := range row {
			record[j], _ = conv.ToString(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("ingestion: write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
