package dataset

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rushteam/youchoose/core"
)

func newGridLoader(t *testing.T, rows, batchSize, numNegs int, shuffle bool) *Loader {
	t.Helper()
	tbl := gridTable(rows, 40, 1)
	ds, err := NewInteractionsDataset(tbl, NewIDIndex(tbl.UserIDs()), NewIDIndex(tbl.ItemIDs()), WithNumNegs(numNegs))
	if err != nil {
		t.Fatal(err)
	}
	l, err := NewLoader(ds, batchSize, shuffle)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestLoader_BatchSizes(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		batchSize int
		numNegs   int
		wantSizes []int
	}{
		{"even", 6, 2, 0, []int{2, 2, 2}},
		{"remainder", 7, 3, 0, []int{3, 3, 1}},
		{"with negatives", 5, 2, 2, []int{6, 6, 3}},
		{"batch larger than data", 3, 10, 1, []int{6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newGridLoader(t, tt.rows, tt.batchSize, tt.numNegs, false)
			var sizes []int
			err := l.Each(context.Background(), func(b *Batch) error {
				if len(b.Items) != b.Len() || len(b.Weights) != b.Len() {
					t.Fatalf("ragged batch: users=%d items=%d weights=%d", b.Len(), len(b.Items), len(b.Weights))
				}
				sizes = append(sizes, b.Len())
				return nil
			})
			if err != nil {
				t.Fatalf("Each() error = %v", err)
			}
			if !slices.Equal(sizes, tt.wantSizes) {
				t.Errorf("batch sizes = %v, want %v", sizes, tt.wantSizes)
			}
			if l.NumBatches() != len(tt.wantSizes) {
				t.Errorf("NumBatches() = %d, want %d", l.NumBatches(), len(tt.wantSizes))
			}
		})
	}
}

func TestLoader_SequentialOrder(t *testing.T) {
	l := newGridLoader(t, 5, 2, 0, false)
	var users []int
	for epoch := 0; epoch < 2; epoch++ {
		users = users[:0]
		_ = l.Each(context.Background(), func(b *Batch) error {
			users = append(users, b.Users...)
			return nil
		})
		if !slices.Equal(users, []int{0, 1, 2, 3, 4}) {
			t.Fatalf("epoch %d users = %v, want sequential", epoch, users)
		}
	}
}

func TestLoader_ShuffleCoversAllRows(t *testing.T) {
	l := newGridLoader(t, 30, 4, 0, true)
	var first []int
	for epoch := 0; epoch < 2; epoch++ {
		var users []int
		_ = l.Each(context.Background(), func(b *Batch) error {
			users = append(users, b.Users...)
			return nil
		})
		sorted := slices.Sorted(slices.Values(users))
		for i, u := range sorted {
			if u != i {
				t.Fatalf("epoch %d does not cover every row exactly once: %v", epoch, sorted)
			}
		}
		if epoch == 0 {
			first = users
		} else if slices.Equal(first, users) {
			t.Error("two shuffled epochs produced the same order")
		}
	}
}

func TestLoader_StopsOnError(t *testing.T) {
	l := newGridLoader(t, 10, 2, 0, false)
	stop := errors.New("stop")
	calls := 0
	err := l.Each(context.Background(), func(*Batch) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Each() = %v after %d calls, want stop after 1", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Each(ctx, func(*Batch) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Each(cancelled) = %v, want context.Canceled", err)
	}
}

func TestNewLoader_InvalidBatchSize(t *testing.T) {
	tbl := exampleTable()
	ds, _ := NewInteractionsDataset(tbl, NewIDIndex(tbl.UserIDs()), NewIDIndex(tbl.ItemIDs()))
	if _, err := NewLoader(ds, 0, false); !core.IsInvalidConfig(err) {
		t.Errorf("NewLoader(batch=0) error = %v, want INVALID_CONFIG", err)
	}
}
