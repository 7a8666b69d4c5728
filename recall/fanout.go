package recall

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pipeline"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 Sources 顺序合并结果。
// 单个召回源出错或超时只记录日志，不影响其他召回源。
// recall_source 标签由各召回源自行写入；去重时同一物品的标签按 core.MergeLabel 合并，
// 如同时被 mf 与 precomputed 命中的物品得到 "mf|precomputed"。
type Fanout struct {
	Sources       []Source
	Dedup         bool          // 按 ID 去重，保留排在前面的召回源的结果并合并 labels
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	Logger        *zerolog.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	log := zerolog.Nop()
	if n.Logger != nil {
		log = *n.Logger
	}

	results := make([][]*core.Item, len(n.Sources))
	var eg errgroup.Group
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}
	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			start := time.Now()
			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				log.Warn().Err(err).Str("source", src.Name()).Msg("recall source failed")
				return nil
			}
			log.Debug().Str("source", src.Name()).Int("items", len(items)).
				Dur("duration", time.Since(start)).Msg("recall source done")

			results[i] = items
			return nil
		})
	}
	_ = eg.Wait()

	return n.merge(results), nil
}

func (n *Fanout) merge(results [][]*core.Item) []*core.Item {
	var total int
	for _, items := range results {
		total += len(items)
	}
	out := make([]*core.Item, 0, total)
	seen := make(map[string]*core.Item, total)
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if !n.Dedup {
				out = append(out, it)
				continue
			}
			if old, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}
