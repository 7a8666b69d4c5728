package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/filter"
	"github.com/rushteam/youchoose/model"
	"github.com/rushteam/youchoose/pipeline"
	"github.com/rushteam/youchoose/recall"
	"github.com/rushteam/youchoose/rerank"
	"github.com/rushteam/youchoose/store"
)

func runRecommend(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, path := newFlagSet("recommend", stderr)
	user := fs.String("user", "", "raw user id")
	n := fs.Int("n", 10, "number of items to return")
	expr := fs.String("filter", "", "CEL expression an item must satisfy, e.g. item.score > 0.5")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("-user is required")
	}
	cfg, logger, err := setup(*path, stderr)
	if err != nil {
		return err
	}
	if cfg.Store.Type == store.TypeMemory {
		logger.Warn().Msg("memory store starts empty; publish to redis or badger to recommend across runs")
	}

	s, err := store.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()
	adapter := recall.NewStoreMFAdapter(s, cfg.Publish.KeyPrefix)

	method := cfg.Model.Method
	if meta, err := adapter.Metadata(ctx); err == nil && meta["method"] != "" {
		method = meta["method"]
	}

	filters := []filter.Filter{&filter.SeenFilter{Store: adapter}}
	if *expr != "" {
		f, err := filter.NewExprFilter(*expr)
		if err != nil {
			return err
		}
		filters = append(filters, f)
	}

	p := &pipeline.Pipeline{
		Logger: &logger,
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.MFRecall{Store: adapter, TopK: 10 * *n, Probability: method == model.MethodNN},
					&recall.Precomputed{Store: adapter, TopK: *n},
				},
				Dedup:  true,
				Logger: &logger,
			},
			&filter.FilterNode{Filters: filters, Logger: &logger},
			&rerank.TopNNode{N: *n, Sort: true},
		},
	}
	items, err := p.Run(ctx, &core.RecommendContext{UserID: *user, Scene: "cli"}, nil)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		logger.Warn().Str("user", *user).Msg("no recommendations")
	}
	for i, it := range items {
		fmt.Fprintf(stdout, "%d\t%s\t%.6f\n", i+1, it.ID, it.Score)
	}
	return nil
}
