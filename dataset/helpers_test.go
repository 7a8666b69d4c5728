package dataset

import (
	"fmt"

	"github.com/rushteam/youchoose/core"
)

// exampleTable 是文档中的最小例子：users {1,2}, items {10,20,30}。
func exampleTable() *core.Table {
	return core.NewTable([]core.Interaction{
		{UserID: "1", ItemID: "10", Weight: 1},
		{UserID: "1", ItemID: "20", Weight: 1},
		{UserID: "2", ItemID: "30", Weight: 1},
	})
}

// gridTable 生成 nUsers × nItems 中每个用户交互前 perUser 个物品的表。
func gridTable(nUsers, nItems, perUser int) *core.Table {
	rows := make([]core.Interaction, 0, nUsers*perUser)
	for u := 0; u < nUsers; u++ {
		for k := 0; k < perUser; k++ {
			rows = append(rows, core.Interaction{
				UserID: fmt.Sprintf("u%03d", u),
				ItemID: fmt.Sprintf("i%03d", (u+k)%nItems),
				Weight: float64(1 + k%3),
			})
		}
	}
	return core.NewTable(rows)
}
