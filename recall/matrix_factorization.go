package recall

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pipeline"
)

// MFStore 是矩阵分解召回读取隐向量的存储接口。
type MFStore interface {
	// GetUserVector 获取用户的增广隐向量，不存在时返回 nil
	GetUserVector(ctx context.Context, userID string) ([]float64, error)

	// GetAllItemVectors 获取所有物品的增广隐向量
	GetAllItemVectors(ctx context.Context) (map[string][]float64, error)
}

// MFRecall 是基于矩阵分解的召回源。
//
// 预测分数 = 用户增广向量 · 物品增广向量 = b_u + b_i + <p_u, q_i>。
// 用户向量不存在（冷启动）时返回空结果。
//
// Label：recall_source = mf
type MFRecall struct {
	Store MFStore

	// TopK 返回 TopK 个物品，<= 0 时为 20
	TopK int

	// Probability 为 true 时分数经过 sigmoid（nn 模型的正交互概率）
	Probability bool
}

func (r *MFRecall) Name() string        { return "recall.mf" }
func (r *MFRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 pipeline.Node，忽略上游 items。
func (r *MFRecall) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *MFRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	userVector, err := r.Store.GetUserVector(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(userVector) == 0 {
		return nil, nil
	}

	itemVectors, err := r.Store.GetAllItemVectors(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]ScoredID, 0, len(itemVectors))
	for id, v := range itemVectors {
		if len(v) != len(userVector) {
			continue
		}
		scores = append(scores, ScoredID{ID: id, Score: dotProduct(userVector, v)})
	}
	slices.SortFunc(scores, func(a, b ScoredID) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return core.CompareID(a.ID, b.ID)
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}
	if len(scores) > topK {
		scores = scores[:topK]
	}

	out := make([]*core.Item, 0, len(scores))
	for _, s := range scores {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		if r.Probability {
			it.Score = 1 / (1 + math.Exp(-s.Score))
		}
		it.PutLabel("recall_source", core.Label{Value: "mf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

func dotProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
