package recall

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
	"github.com/rushteam/youchoose/model"
)

// VectorSource 提供训练好的模型参数，model.Recommender 满足该接口。
type VectorSource interface {
	Name() string
	Snapshot() *model.Snapshot
}

// ScoredID 是带分数的物品标识。
type ScoredID struct {
	ID    string
	Score float64
}

// StoreMFAdapter 把训练好的隐向量发布到 core.Store，并供在线召回读取。
//
// key 布局（KeyPrefix 默认 "mf"）：
//   - {KeyPrefix}:user:{userID}  用户向量 [b_u, 1, p_u...]
//   - {KeyPrefix}:item:{itemID}  物品向量 [1, b_i, q_i...]
//   - {KeyPrefix}:users          用户标识列表
//   - {KeyPrefix}:items          物品标识列表
//   - {KeyPrefix}:seen:{userID}  用户已交互物品列表
//   - {KeyPrefix}:top:{userID}   预计算 TopN（有序集合，需 KeyValueStore）
//   - {KeyPrefix}:meta           模型元数据（Hash，需 KeyValueStore）
//
// 增广后两个向量的点积等于模型的 logit：b_u + b_i + <p_u, q_i>。
//
// 同一 KeyPrefix 下重新发布时，上一次发布中存在、本次已不存在的用户/物品，
// 其 user / item / seen / top key 会被删除。
type StoreMFAdapter struct {
	store core.Store

	KeyPrefix string
}

// NewStoreMFAdapter 创建一个基于 core.Store 的矩阵分解适配器。
func NewStoreMFAdapter(s core.Store, keyPrefix string) *StoreMFAdapter {
	if keyPrefix == "" {
		keyPrefix = "mf"
	}
	return &StoreMFAdapter{
		store:     s,
		KeyPrefix: keyPrefix,
	}
}

func (a *StoreMFAdapter) Name() string { return "store_mf_adapter" }

func (a *StoreMFAdapter) userKey(id string) string { return a.KeyPrefix + ":user:" + id }
func (a *StoreMFAdapter) itemKey(id string) string { return a.KeyPrefix + ":item:" + id }
func (a *StoreMFAdapter) seenKey(id string) string { return a.KeyPrefix + ":seen:" + id }
func (a *StoreMFAdapter) topKey(id string) string  { return a.KeyPrefix + ":top:" + id }
func (a *StoreMFAdapter) usersKey() string         { return a.KeyPrefix + ":users" }
func (a *StoreMFAdapter) itemsKey() string         { return a.KeyPrefix + ":items" }
func (a *StoreMFAdapter) metaKey() string          { return a.KeyPrefix + ":meta" }

// UserVector 返回增广后的用户向量 [b_u, 1, p_u...]。
func UserVector(s *model.Snapshot, u int) []float64 {
	v := make([]float64, 0, s.NumFactors+2)
	v = append(v, s.UserBias[u], 1)
	return append(v, s.UserFactors[u]...)
}

// ItemVector 返回增广后的物品向量 [1, b_i, q_i...]。
func ItemVector(s *model.Snapshot, i int) []float64 {
	v := make([]float64, 0, s.NumFactors+2)
	v = append(v, 1, s.ItemBias[i])
	return append(v, s.ItemFactors[i]...)
}

// Publish 写入全部用户/物品向量与用户/物品列表；users/items 是按下标排列的原始标识。
// 上一次发布遗留的、本次不再出现的标识会被清理。
// 若 store 实现了 KeyValueStore，同时写入模型元数据。
func (a *StoreMFAdapter) Publish(ctx context.Context, users, items []string, src VectorSource) error {
	snap := src.Snapshot()
	if err := snap.Validate(); err != nil {
		return err
	}
	if len(users) != snap.NumUsers() || len(items) != snap.NumItems() {
		return core.Errorf(core.ModuleStore, core.ErrorCodeInvalidInput,
			"recall: publish got %d users / %d items for a model with %d / %d",
			len(users), len(items), snap.NumUsers(), snap.NumItems())
	}

	oldUsers, err := a.getList(ctx, a.usersKey())
	if err != nil {
		return fmt.Errorf("recall: read published users: %w", err)
	}
	oldItems, err := a.getList(ctx, a.itemsKey())
	if err != nil {
		return fmt.Errorf("recall: read published items: %w", err)
	}

	kvs := make(map[string][]byte, len(users)+len(items)+2)
	for u, id := range users {
		data, err := json.Marshal(UserVector(snap, u))
		if err != nil {
			return fmt.Errorf("recall: encode user vector %q: %w", id, err)
		}
		kvs[a.userKey(id)] = data
	}
	for i, id := range items {
		data, err := json.Marshal(ItemVector(snap, i))
		if err != nil {
			return fmt.Errorf("recall: encode item vector %q: %w", id, err)
		}
		kvs[a.itemKey(id)] = data
	}
	for key, ids := range map[string][]string{a.usersKey(): users, a.itemsKey(): items} {
		list, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("recall: encode %s: %w", key, err)
		}
		kvs[key] = list
	}

	if err := a.store.BatchSet(ctx, kvs); err != nil {
		return fmt.Errorf("recall: publish vectors: %w", err)
	}
	if err := a.deleteStale(ctx, oldUsers, users, a.userKey, a.seenKey, a.topKey); err != nil {
		return err
	}
	if err := a.deleteStale(ctx, oldItems, items, a.itemKey); err != nil {
		return err
	}

	kv, ok := a.store.(core.KeyValueStore)
	if !ok {
		return nil
	}
	meta := map[string]string{
		"method":       src.Name(),
		"num_factors":  strconv.Itoa(snap.NumFactors),
		"num_users":    strconv.Itoa(len(users)),
		"num_items":    strconv.Itoa(len(items)),
		"published_at": time.Now().UTC().Format(time.RFC3339),
	}
	for field, value := range meta {
		if err := kv.HSet(ctx, a.metaKey(), field, []byte(value)); err != nil {
			return fmt.Errorf("recall: publish metadata: %w", err)
		}
	}
	return nil
}

// deleteStale 删除 old 中存在而 current 中不存在的标识对应的 key。
func (a *StoreMFAdapter) deleteStale(ctx context.Context, old, current []string, keyFns ...func(string) string) error {
	if len(old) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(current))
	for _, id := range current {
		keep[id] = struct{}{}
	}
	for _, id := range old {
		if _, ok := keep[id]; ok {
			continue
		}
		for _, key := range keyFns {
			if err := a.store.Delete(ctx, key(id)); err != nil {
				return fmt.Errorf("recall: delete stale %q: %w", id, err)
			}
		}
	}
	return nil
}

// PublishSeen 写入每个用户的已交互物品列表。
func (a *StoreMFAdapter) PublishSeen(ctx context.Context, seen map[string][]string) error {
	kvs := make(map[string][]byte, len(seen))
	for user, ids := range seen {
		data, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("recall: encode seen list %q: %w", user, err)
		}
		kvs[a.seenKey(user)] = data
	}
	if err := a.store.BatchSet(ctx, kvs); err != nil {
		return fmt.Errorf("recall: publish seen lists: %w", err)
	}
	return nil
}

// PublishTop 为每个用户预计算 TopK（排除 exclude 中的物品）并写入有序集合。
// store 不支持有序集合时返回 ErrStoreNotSupported。
func (a *StoreMFAdapter) PublishTop(ctx context.Context, users, items []string, rec model.Recommender, k int, exclude dataset.InteractionSets) error {
	kv, ok := a.store.(core.KeyValueStore)
	if !ok {
		return core.ErrStoreNotSupported
	}
	for u, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := a.topKey(user)
		if err := kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("recall: reset top list %q: %w", user, err)
		}
		for _, s := range rec.RecommendTop(u, k, exclude[u]) {
			if err := kv.ZAdd(ctx, key, s.Score, items[s.Item]); err != nil {
				return fmt.Errorf("recall: publish top list %q: %w", user, err)
			}
		}
	}
	return nil
}

// SeenLists 把交互集合转换为 原始用户标识 → 已交互物品标识 的列表，列表按标识排序。
func SeenLists(sets dataset.InteractionSets, users, items *dataset.Index[string]) map[string][]string {
	out := make(map[string][]string, len(sets))
	for u, set := range sets {
		ids := make([]string, 0, len(set))
		for i := range set {
			ids = append(ids, items.ID(i))
		}
		slices.SortFunc(ids, core.CompareID)
		out[users.ID(u)] = ids
	}
	return out
}

func (a *StoreMFAdapter) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("recall: decode %s: %w", key, err)
	}
	return true, nil
}

// GetUserVector 读取用户向量，不存在时返回 nil。
func (a *StoreMFAdapter) GetUserVector(ctx context.Context, userID string) ([]float64, error) {
	var v []float64
	if _, err := a.getJSON(ctx, a.userKey(userID), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetItemVector 读取物品向量，不存在时返回 nil。
func (a *StoreMFAdapter) GetItemVector(ctx context.Context, itemID string) ([]float64, error) {
	var v []float64
	if _, err := a.getJSON(ctx, a.itemKey(itemID), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (a *StoreMFAdapter) getList(ctx context.Context, key string) ([]string, error) {
	var ids []string
	if _, err := a.getJSON(ctx, key, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetAllItems 返回已发布的物品标识列表。
func (a *StoreMFAdapter) GetAllItems(ctx context.Context) ([]string, error) {
	return a.getList(ctx, a.itemsKey())
}

// GetAllUsers 返回已发布的用户标识列表。
func (a *StoreMFAdapter) GetAllUsers(ctx context.Context) ([]string, error) {
	return a.getList(ctx, a.usersKey())
}

// GetAllItemVectors 批量读取全部物品向量。
func (a *StoreMFAdapter) GetAllItemVectors(ctx context.Context) (map[string][]float64, error) {
	ids, err := a.GetAllItems(ctx)
	if err != nil || len(ids) == 0 {
		return map[string][]float64{}, err
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = a.itemKey(id)
	}
	raw, err := a.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]float64, len(raw))
	for i, id := range ids {
		data, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var v []float64
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("recall: decode item vector %q: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

// GetSeenItems 返回用户已交互的物品标识。
func (a *StoreMFAdapter) GetSeenItems(ctx context.Context, userID string) ([]string, error) {
	return a.getList(ctx, a.seenKey(userID))
}

// GetTopItems 返回预计算的前 n 个物品及其分数。
func (a *StoreMFAdapter) GetTopItems(ctx context.Context, userID string, n int) ([]ScoredID, error) {
	kv, ok := a.store.(core.KeyValueStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}
	if n <= 0 {
		return nil, nil
	}
	key := a.topKey(userID)
	members, err := kv.ZRange(ctx, key, 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	out := make([]ScoredID, 0, len(members))
	for _, m := range members {
		score, err := kv.ZScore(ctx, key, m)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoredID{ID: m, Score: score})
	}
	return out, nil
}

// Metadata 返回发布时写入的模型元数据。
func (a *StoreMFAdapter) Metadata(ctx context.Context) (map[string]string, error) {
	kv, ok := a.store.(core.KeyValueStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}
	raw, err := kv.HGetAll(ctx, a.metaKey())
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = string(v)
	}
	return out, nil
}

var (
	_ MFStore  = (*StoreMFAdapter)(nil)
	_ TopStore = (*StoreMFAdapter)(nil)
)
