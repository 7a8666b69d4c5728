package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/pipeline"
)

// FilterNode 组合多个过滤器，任何一个过滤器返回 true 的物品都会被移除。
// 过滤器出错时记录日志并视为保留，不中断请求；Prepare 出错则返回错误。
type FilterNode struct {
	Filters []Filter
	Logger  *zerolog.Logger
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	log := zerolog.Nop()
	if n.Logger != nil {
		log = *n.Logger
	}

	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		if p, ok := f.(Preparer); ok {
			prepared, err := p.Prepare(ctx, rctx)
			if err != nil {
				return nil, err
			}
			f = prepared
		}
		filters = append(filters, f)
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		reason := ""
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				log.Warn().Err(err).Str("filter", f.Name()).Str("item", item.ID).Msg("filter failed")
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}
		if reason != "" {
			item.PutLabel("filtered", core.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	log.Debug().Int("in", len(items)).Int("out", len(out)).Msg("filtered")
	return out, nil
}
