package recall

import (
	"context"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pipeline"
)

// TopStore 读取离线预计算的用户 TopN。
type TopStore interface {
	GetTopItems(ctx context.Context, userID string, n int) ([]ScoredID, error)
}

// Precomputed 是预计算召回源：直接读取发布时写入有序集合的用户 TopN。
// 存储不支持有序集合或用户没有结果时，使用 Fallback 中的物品。
//
// Label：recall_source = precomputed
type Precomputed struct {
	Store    TopStore
	TopK     int
	Fallback []string
}

func (r *Precomputed) Name() string        { return "recall.precomputed" }
func (r *Precomputed) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Precomputed) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Precomputed) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	var scored []ScoredID
	if r.Store != nil && rctx != nil && rctx.UserID != "" {
		var err error
		scored, err = r.Store.GetTopItems(ctx, rctx.UserID, topK)
		if err != nil && !core.IsStoreNotSupported(err) {
			return nil, err
		}
	}

	if len(scored) == 0 {
		for _, id := range r.Fallback {
			if len(scored) == topK {
				break
			}
			scored = append(scored, ScoredID{ID: id})
		}
	}

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.PutLabel("recall_source", core.Label{Value: "precomputed", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
