package model

import (
	"fmt"
	"testing"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
)

// blockTable 生成两组互不相交的用户/物品块：前一半用户只交互前一半物品。
func blockTable(nUsers, nItems int) *core.Table {
	rows := make([]core.Interaction, 0)
	for u := 0; u < nUsers; u++ {
		group := u * 2 / nUsers
		for i := 0; i < nItems; i++ {
			if i*2/nItems != group {
				continue
			}
			rows = append(rows, core.Interaction{
				UserID: fmt.Sprintf("u%02d", u),
				ItemID: fmt.Sprintf("i%02d", i),
				Weight: 1,
			})
		}
	}
	return core.NewTable(rows)
}

func newTestLoader(t *testing.T, tbl *core.Table, numNegs, batchSize int, shuffle bool) *dataset.Loader {
	t.Helper()
	ds, err := dataset.NewInteractionsDataset(tbl,
		dataset.NewIDIndex(tbl.UserIDs()), dataset.NewIDIndex(tbl.ItemIDs()),
		dataset.WithNumNegs(numNegs))
	if err != nil {
		t.Fatalf("NewInteractionsDataset() error = %v", err)
	}
	l, err := dataset.NewLoader(ds, batchSize, shuffle)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return l
}
