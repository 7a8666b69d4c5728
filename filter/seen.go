package filter

import (
	"context"

	"github.com/rushteam/youchoose/core"
)

// SeenStore 读取用户已交互的物品标识。
type SeenStore interface {
	GetSeenItems(ctx context.Context, userID string) ([]string, error)
}

// SeenFilter 过滤掉用户已经交互过的物品，以及 ItemIDs 中的固定物品。
type SeenFilter struct {
	// Store 用于按请求读取用户已交互列表（可选）
	Store SeenStore

	// ItemIDs 是始终过滤的物品（可选）
	ItemIDs []string
}

func (f *SeenFilter) Name() string { return "filter.seen" }

// Prepare 读取当前用户的已交互列表，返回本次请求使用的集合过滤器。
func (f *SeenFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	set := make(idSet, len(f.ItemIDs))
	for _, id := range f.ItemIDs {
		set[id] = struct{}{}
	}
	if f.Store != nil && rctx != nil && rctx.UserID != "" {
		ids, err := f.Store.GetSeenItems(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return &preparedSeen{name: f.Name(), set: set}, nil
}

// ShouldFilter 在未经 Prepare 时直接使用，每次都读取存储。
func (f *SeenFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	p, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return p.ShouldFilter(ctx, rctx, item)
}

type idSet map[string]struct{}

type preparedSeen struct {
	name string
	set  idSet
}

func (p *preparedSeen) Name() string { return p.name }

func (p *preparedSeen) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := p.set[item.ID]
	return ok, nil
}
