package dataset

import (
	"context"
	"testing"

	"github.com/rushteam/youchoose/core"
)

func TestRatingsDataloader_InvalidConfig(t *testing.T) {
	tbl := gridTable(10, 10, 2)
	tests := []struct {
		name string
		opts []RatingsOption
	}{
		{"fractions over one", []RatingsOption{WithFractions(0.9, 0.2)}},
		{"negative train fraction", []RatingsOption{WithFractions(-0.1, 0.1)}},
		{"negative num negs", []RatingsOption{WithNegatives(-1)}},
		{"zero batch size", []RatingsOption{WithBatchSize(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RatingsDataloader(tbl, tt.opts...); !core.IsInvalidConfig(err) {
				t.Errorf("RatingsDataloader() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestRatingsDataloader_Partitions(t *testing.T) {
	tbl := gridTable(50, 30, 2) // 100 行
	l, err := RatingsDataloader(tbl, WithBatchSize(8), WithNegatives(1), WithReweight(false))
	if err != nil {
		t.Fatalf("RatingsDataloader() error = %v", err)
	}

	if got := l.Train.Len(); got != 80 {
		t.Errorf("train rows = %d, want 80", got)
	}
	if got := l.Test.Len(); got != 10 {
		t.Errorf("test rows = %d, want 10", got)
	}
	if got := l.Validation.Len(); got != 10 {
		t.Errorf("validation rows = %d, want 10", got)
	}
	if l.NumUsers != 50 || l.NumItems != 30 {
		t.Errorf("cardinalities = (%d, %d), want (50, 30)", l.NumUsers, l.NumItems)
	}
	if !l.Train.Shuffle() || l.Validation.Shuffle() || l.Test.Shuffle() {
		t.Error("only the train loader should shuffle")
	}

	// 三个分区共享同一套索引和全量交互集合
	for name, loader := range map[string]*Loader{"train": l.Train, "validation": l.Validation, "test": l.Test} {
		ds := loader.Dataset()
		if ds.NumUsers() != l.NumUsers || ds.NumItems() != l.NumItems {
			t.Errorf("%s dataset cardinalities differ from loaders", name)
		}
		if ds.InteractionSets().Count(0) != 2 {
			t.Errorf("%s interaction sets are not built from the full table", name)
		}
	}

	sets := l.Train.Dataset().InteractionSets()
	err = l.Validation.Each(context.Background(), func(b *Batch) error {
		for i := range b.Users {
			if b.Weights[i] == 0 && sets.Has(b.Users[i], b.Items[i]) {
				t.Errorf("negative (%d, %d) was seen in the full table", b.Users[i], b.Items[i])
			}
			if b.Weights[i] != 0 && !sets.Has(b.Users[i], b.Items[i]) {
				t.Errorf("positive (%d, %d) missing from interaction sets", b.Users[i], b.Items[i])
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestRatingsDataloader_Reweight(t *testing.T) {
	tbl := gridTable(10, 10, 3) // 权重 1, 2, 3
	tests := []struct {
		name     string
		reweight bool
		want     map[float64]bool
	}{
		{"binarized", true, map[float64]bool{1: true}},
		{"raw weights", false, map[float64]bool{1: true, 2: true, 3: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := RatingsDataloader(tbl, WithFractions(1, 0), WithReweight(tt.reweight), WithBatchSize(4))
			if err != nil {
				t.Fatal(err)
			}
			got := map[float64]bool{}
			_ = l.Train.Each(context.Background(), func(b *Batch) error {
				for _, w := range b.Weights {
					got[w] = true
				}
				return nil
			})
			if len(got) != len(tt.want) {
				t.Fatalf("weights = %v, want %v", got, tt.want)
			}
			for w := range tt.want {
				if !got[w] {
					t.Errorf("weight %v missing, got %v", w, got)
				}
			}
		})
	}
}
