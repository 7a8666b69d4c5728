package dataset

import (
	"testing"
)

func TestBuildInteractionSets_Example(t *testing.T) {
	tbl := exampleTable()
	users := NewIDIndex(tbl.UserIDs())
	items := NewIDIndex(tbl.ItemIDs())

	sets, err := BuildInteractionSets(tbl, users, items)
	if err != nil {
		t.Fatalf("BuildInteractionSets() error = %v", err)
	}

	u1, _ := users.Lookup("1")
	if sets.Count(u1) != 2 || !sets.Has(u1, 0) || !sets.Has(u1, 1) || sets.Has(u1, 2) {
		t.Errorf("user 1 set = %v, want {0,1}", sets[u1])
	}
}

func TestBuildInteractionSets_Exhaustive(t *testing.T) {
	tbl := gridTable(20, 15, 4)
	users := NewIDIndex(tbl.UserIDs())
	items := NewIDIndex(tbl.ItemIDs())
	sets, err := BuildInteractionSets(tbl, users, items)
	if err != nil {
		t.Fatalf("BuildInteractionSets() error = %v", err)
	}

	pairs := make(map[[2]int]bool)
	for _, row := range tbl.Rows {
		u, _ := users.Lookup(row.UserID)
		i, _ := items.Lookup(row.ItemID)
		pairs[[2]int{u, i}] = true
	}
	for u := 0; u < users.Len(); u++ {
		for i := 0; i < items.Len(); i++ {
			if sets.Has(u, i) != pairs[[2]int{u, i}] {
				t.Fatalf("Has(%d,%d) = %v, want %v", u, i, sets.Has(u, i), pairs[[2]int{u, i}])
			}
		}
	}
}
