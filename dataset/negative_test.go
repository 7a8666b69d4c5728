package dataset

import (
	"math/rand"
	"testing"

	"github.com/rushteam/youchoose/core"
)

func TestNegativeSampler_Example(t *testing.T) {
	tbl := exampleTable()
	users := NewIDIndex(tbl.UserIDs())
	items := NewIDIndex(tbl.ItemIDs())
	sets, err := BuildInteractionSets(tbl, users, items)
	if err != nil {
		t.Fatal(err)
	}
	s := NewNegativeSampler(items.Len(), sets, rand.New(rand.NewSource(1)))
	u1, _ := users.Lookup("1")

	for i := 0; i < 100; i++ {
		got, err := s.Sample(u1, 1)
		if err != nil {
			t.Fatalf("Sample() error = %v", err)
		}
		if len(got) != 1 || got[0] != 2 {
			t.Fatalf("Sample(user 1, 1) = %v, want [2]", got)
		}
	}
}

func TestNegativeSampler_NeverPositive(t *testing.T) {
	tests := []struct {
		name    string
		perUser int
	}{
		{"sparse users use rejection sampling", 3},
		{"dense users use enumerated candidates", 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := gridTable(30, 20, tt.perUser)
			users := NewIDIndex(tbl.UserIDs())
			items := NewIDIndex(tbl.ItemIDs())
			sets, err := BuildInteractionSets(tbl, users, items)
			if err != nil {
				t.Fatal(err)
			}
			s := NewNegativeSampler(items.Len(), sets, rand.New(rand.NewSource(42)))
			for u := 0; u < users.Len(); u++ {
				negs, err := s.Sample(u, 50)
				if err != nil {
					t.Fatalf("Sample(%d) error = %v", u, err)
				}
				if len(negs) != 50 {
					t.Fatalf("Sample(%d) returned %d items, want 50", u, len(negs))
				}
				for _, it := range negs {
					if sets.Has(u, it) {
						t.Fatalf("user %d got positive item %d as a negative", u, it)
					}
					if it < 0 || it >= items.Len() {
						t.Fatalf("item %d out of range", it)
					}
				}
			}
		})
	}
}

func TestNegativeSampler_WithReplacement(t *testing.T) {
	tbl := exampleTable()
	users := NewIDIndex(tbl.UserIDs())
	items := NewIDIndex(tbl.ItemIDs())
	sets, _ := BuildInteractionSets(tbl, users, items)
	s := NewNegativeSampler(items.Len(), sets, nil)

	u1, _ := users.Lookup("1")
	got, err := s.Sample(u1, 5)
	if err != nil {
		t.Fatal(err)
	}
	// 只有一个候选物品，有放回抽样必然重复
	for _, it := range got {
		if it != 2 {
			t.Fatalf("Sample() = %v, want all 2", got)
		}
	}
}

func TestNegativeSampler_Errors(t *testing.T) {
	tbl := core.NewTable([]core.Interaction{
		{UserID: "a", ItemID: "x", Weight: 1},
		{UserID: "a", ItemID: "y", Weight: 1},
		{UserID: "b", ItemID: "x", Weight: 1},
	})
	users := NewIDIndex(tbl.UserIDs())
	items := NewIDIndex(tbl.ItemIDs())
	sets, _ := BuildInteractionSets(tbl, users, items)
	s := NewNegativeSampler(items.Len(), sets, nil)
	a, _ := users.Lookup("a")

	if _, err := s.Sample(a, 1); !core.IsEmptyNegativeSet(err) {
		t.Errorf("Sample(saturated user) error = %v, want EMPTY_NEGATIVE_SET", err)
	}
	if got, err := s.Sample(a, 0); err != nil || got != nil {
		t.Errorf("Sample(n=0) = %v, %v; want nil, nil", got, err)
	}
	if _, err := s.Sample(a, -1); !core.IsInvalidConfig(err) {
		t.Errorf("Sample(n=-1) error = %v, want INVALID_CONFIG", err)
	}
}
