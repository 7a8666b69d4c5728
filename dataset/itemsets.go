package dataset

import (
	"github.com/rushteam/youchoose/core"
)

// InteractionSets 是 用户下标 → 已交互物品下标集合 的映射。
// 对构建它的表是完备的：表中出现的每个 (user, item) 都在集合内，表外的都不在。
type InteractionSets map[int]map[int]struct{}

// BuildInteractionSets 从交互表构建每个用户的已交互物品集合。
// 表中任何一个标识不在索引中都会返回 NOT_FOUND。
func BuildInteractionSets(t *core.Table, users, items *Index[string]) (InteractionSets, error) {
	sets := make(InteractionSets, users.Len())
	for _, row := range t.Rows {
		u, ok := users.Lookup(row.UserID)
		if !ok {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeNotFound, "dataset: user %q not in index", row.UserID)
		}
		i, ok := items.Lookup(row.ItemID)
		if !ok {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeNotFound, "dataset: item %q not in index", row.ItemID)
		}
		if sets[u] == nil {
			sets[u] = make(map[int]struct{})
		}
		sets[u][i] = struct{}{}
	}
	return sets, nil
}

// Has 判断用户是否与物品交互过。
func (s InteractionSets) Has(user, item int) bool {
	_, ok := s[user][item]
	return ok
}

// Count 返回用户交互过的不同物品数。
func (s InteractionSets) Count(user int) int {
	return len(s[user])
}
