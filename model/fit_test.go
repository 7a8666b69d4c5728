package model

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
)

func newTestLoaders(t *testing.T) *dataset.Loaders {
	t.Helper()
	l, err := dataset.RatingsDataloader(blockTable(10, 10), // 50 行
		dataset.WithBatchSize(8), dataset.WithNegatives(1))
	if err != nil {
		t.Fatalf("RatingsDataloader() error = %v", err)
	}
	return l
}

func TestFit(t *testing.T) {
	loaders := newTestLoaders(t)
	rec, err := New(MethodNN, Options{
		NumUsers: loaders.NumUsers, NumItems: loaders.NumItems,
		Optimizer: OptimizerAdam, LearningRate: 0.05,
	})
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	h, err := Fit(context.Background(), rec, loaders, FitOptions{Epochs: 3, Metrics: metrics})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(h.Epochs) != 3 {
		t.Fatalf("len(History.Epochs) = %d, want 3", len(h.Epochs))
	}
	for i, e := range h.Epochs {
		if e.Epoch != i+1 || e.Train.Total != loaders.Train.Len()*2 {
			t.Errorf("epoch %d stats = %+v", i, e)
		}
	}
	if h.Test.Total != loaders.Test.Len()*2 {
		t.Errorf("test examples = %d, want %d", h.Test.Total, loaders.Test.Len()*2)
	}
	if h.Validation.Total != loaders.Validation.Len()*2 {
		t.Errorf("validation examples = %d, want %d", h.Validation.Total, loaders.Validation.Len()*2)
	}

	if got := testutil.ToFloat64(metrics.EpochsTotal.WithLabelValues(MethodNN)); got != 3 {
		t.Errorf("epochs_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.Examples.WithLabelValues(MethodNN, PartitionTest)); got != float64(h.Test.Total) {
		t.Errorf("test examples gauge = %v, want %d", got, h.Test.Total)
	}
}

func TestFit_Errors(t *testing.T) {
	loaders := newTestLoaders(t)
	rec, _ := New(MethodALS, Options{NumUsers: loaders.NumUsers, NumItems: loaders.NumItems})

	if _, err := Fit(context.Background(), rec, loaders, FitOptions{}); !core.IsInvalidConfig(err) {
		t.Errorf("Fit(epochs=0) error = %v, want INVALID_CONFIG", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h, err := Fit(ctx, rec, loaders, FitOptions{Epochs: 2})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fit(cancelled) error = %v, want context.Canceled", err)
	}
	if h == nil || len(h.Epochs) != 0 {
		t.Errorf("Fit(cancelled) history = %+v, want empty", h)
	}
}

func TestSaveLoadFile(t *testing.T) {
	a, _ := NewALS(Options{NumUsers: 3, NumItems: 4, NumFactors: 2})
	path := filepath.Join(t.TempDir(), "model.json")
	if err := SaveFile(path, a); err != nil {
		t.Fatal(err)
	}
	rec, err := LoadFile(path, Options{})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if rec.Name() != MethodALS {
		t.Errorf("LoadFile() method = %q, want als", rec.Name())
	}
	if rec.Predict(2, 3) != a.Predict(2, 3) {
		t.Error("prediction differs after LoadFile")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), Options{}); err == nil {
		t.Error("LoadFile(missing) returned nil error")
	}
}
