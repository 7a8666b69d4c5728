package model

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/dataset"
)

// FitOptions 是 Fit 的参数。
type FitOptions struct {
	Epochs  int
	Logger  *zerolog.Logger
	Metrics *Metrics
}

// EpochStats 是一轮训练及其后验证的统计。
type EpochStats struct {
	Epoch      int
	Train      Stats
	Validation Stats
	Duration   time.Duration
}

// History 是 Fit 的结果。
type History struct {
	Epochs     []EpochStats
	Validation Stats
	Test       Stats
}

// Fit 训练 Epochs 轮，每轮之后在验证集上评估；结束后并发评估验证集与测试集。
// ctx 取消时在批次之间退出，返回已完成部分的 History 和 ctx 错误。
func Fit(ctx context.Context, rec Recommender, loaders *dataset.Loaders, opts FitOptions) (*History, error) {
	if opts.Epochs < 1 {
		return nil, core.InvalidConfig(core.ModuleModel, "model: epochs must be >= 1, got %d", opts.Epochs)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log = log.With().Str("method", rec.Name()).Logger()

	h := &History{Epochs: make([]EpochStats, 0, opts.Epochs)}
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		start := time.Now()
		train, err := rec.Train(ctx, loaders.Train)
		if err != nil {
			return h, err
		}
		d := time.Since(start)
		opts.Metrics.RecordEpoch(rec.Name(), d, train)

		val, err := rec.Evaluate(ctx, loaders.Validation)
		if err != nil {
			return h, err
		}
		opts.Metrics.RecordStats(rec.Name(), PartitionValidation, val)

		h.Epochs = append(h.Epochs, EpochStats{Epoch: epoch, Train: train, Validation: val, Duration: d})
		log.Info().
			Int("epoch", epoch).
			Dur("duration", d).
			Float64("train_loss", train.MeanLoss()).
			Float64("train_accuracy", train.Accuracy()).
			Float64("val_loss", val.MeanLoss()).
			Float64("val_accuracy", val.Accuracy()).
			Msg("epoch finished")
	}

	// 两个 loader 各自持有随机源，模型只读，可以并发评估
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := rec.Evaluate(gctx, loaders.Validation)
		h.Validation = s
		return err
	})
	g.Go(func() error {
		s, err := rec.Evaluate(gctx, loaders.Test)
		h.Test = s
		return err
	})
	if err := g.Wait(); err != nil {
		return h, err
	}
	opts.Metrics.RecordStats(rec.Name(), PartitionValidation, h.Validation)
	opts.Metrics.RecordStats(rec.Name(), PartitionTest, h.Test)

	log.Info().
		Float64("val_accuracy", h.Validation.Accuracy()).
		Float64("test_accuracy", h.Test.Accuracy()).
		Int("test_examples", h.Test.Total).
		Msg("fit finished")
	return h, nil
}
