package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rushteam/youchoose/core"
)

// ReadCSV 读取带表头的 CSV。表头缺少 cols 中任一列返回 INVALID_INPUT，
// 权重无法解析时错误中带行号（表头为第 1 行）。
func ReadCSV(r io.Reader, cols Columns) (*core.Table, error) {
	cols = cols.WithDefaults()
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeInvalidInput, "ingestion: csv has no header")
	}
	if err != nil {
		return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeInvalidInput, "ingestion: read header: %w", err)
	}
	f := &Frame{Columns: append([]string(nil), header...)}
	idx, err := f.indices(cols.names())
	if err != nil {
		return nil, err
	}

	rows := make([]core.Interaction, 0)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeInvalidInput, "ingestion: line %d: %w", line, err)
		}
		w, err := strconv.ParseFloat(rec[idx[2]], 64)
		if err != nil {
			return nil, core.Errorf(core.ModuleIngestion, core.ErrorCodeInvalidInput,
				"ingestion: line %d: invalid %s %q: %w", line, cols.Weight, rec[idx[2]], err)
		}
		rows = append(rows, core.Interaction{UserID: rec[idx[0]], ItemID: rec[idx[1]], Weight: w})
	}
	return core.NewTable(rows), nil
}

// ReadCSVFile 打开 path 并调用 ReadCSV。
func ReadCSVFile(path string, cols Columns) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, cols)
}

// WriteCSV 按 cols 写出交互表。
func WriteCSV(w io.Writer, t *core.Table, cols Columns) error {
	cols = cols.WithDefaults()
	f := &Frame{Columns: cols.names(), Rows: make([][]any, 0, t.Len())}
	for _, row := range t.Rows {
		f.Rows = append(f.Rows, []any{row.UserID, row.ItemID, row.Weight})
	}
	return f.WriteCSV(w)
}

// writeFrameFile 把 Frame 写到 path。
func writeFrameFile(path string, f *Frame) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ingestion: create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("ingestion: close %s: %w", path, cerr)
		}
	}()
	return f.WriteCSV(out)
}
