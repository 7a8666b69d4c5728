// Package pipeline 把在线推荐拆成可组合的 Node 链（召回 → 过滤 → 重排）。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/core"
)

// Pipeline 依次执行 Nodes，上一个 Node 的输出是下一个 Node 的输入。
type Pipeline struct {
	Nodes  []Node
	Logger *zerolog.Logger
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	log := zerolog.Nop()
	if p.Logger != nil {
		log = *p.Logger
	}

	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", node.Name(), err)
		}
		log.Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("duration", time.Since(start)).
			Msg("node done")
		cur = next
	}
	return cur, nil
}
