package model

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/youchoose/core"
)

// Snapshot 是模型参数的 JSON 快照。
type Snapshot struct {
	Method      string      `json:"method"`
	NumFactors  int         `json:"num_factors"`
	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`
	UserBias    []float64   `json:"user_bias"`
	ItemBias    []float64   `json:"item_bias"`
}

// NumUsers 返回用户数。
func (s *Snapshot) NumUsers() int { return len(s.UserFactors) }

// NumItems 返回物品数。
func (s *Snapshot) NumItems() int { return len(s.ItemFactors) }

// Validate 检查各矩阵形状一致。
func (s *Snapshot) Validate() error {
	if s.NumFactors < 1 {
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "model: snapshot num_factors must be >= 1, got %d", s.NumFactors)
	}
	if len(s.UserBias) != len(s.UserFactors) || len(s.ItemBias) != len(s.ItemFactors) {
		return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput,
			"model: snapshot bias length mismatch (users %d/%d, items %d/%d)",
			len(s.UserBias), len(s.UserFactors), len(s.ItemBias), len(s.ItemFactors))
	}
	for name, rows := range map[string][][]float64{"user_factors": s.UserFactors, "item_factors": s.ItemFactors} {
		for i, r := range rows {
			if len(r) != s.NumFactors {
				return core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput,
					"model: snapshot %s[%d] has %d factors, want %d", name, i, len(r), s.NumFactors)
			}
		}
	}
	return nil
}

// WriteSnapshot 以 JSON 写出快照。
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	if err := json.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("model: encode snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot 读取并校验 JSON 快照。
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeInvalidInput, "model: decode snapshot: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveFile 把模型保存到 path。
func SaveFile(path string, rec Recommender) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("model: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("model: close %s: %w", path, cerr)
		}
	}()
	return rec.Save(f)
}

// LoadFile 从 path 读取快照，按其中记录的方法名重建模型。
func LoadFile(path string, opts Options) (Recommender, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadSnapshot(f)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(s, opts)
}

// FromSnapshot 按快照的方法名和形状创建模型并恢复参数。
func FromSnapshot(s *Snapshot, opts Options) (Recommender, error) {
	opts.NumUsers = s.NumUsers()
	opts.NumItems = s.NumItems()
	opts.NumFactors = s.NumFactors
	rec, err := New(s.Method, opts)
	if err != nil {
		return nil, err
	}
	r, ok := rec.(snapshotRestorer)
	if !ok {
		return nil, core.Errorf(core.ModuleModel, core.ErrorCodeNotSupported, "model: method %q cannot restore snapshots", s.Method)
	}
	if err := r.restoreSnapshot(s); err != nil {
		return nil, err
	}
	return rec, nil
}

type snapshotRestorer interface {
	restoreSnapshot(s *Snapshot) error
}

func (m *MatrixFactorization) restoreSnapshot(s *Snapshot) error {
	if err := m.restore(MethodNN, s); err != nil {
		return err
	}
	m.bindParams()
	return nil
}

func (a *ALS) restoreSnapshot(s *Snapshot) error { return a.restore(MethodALS, s) }
