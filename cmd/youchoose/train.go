package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/config"
	"github.com/rushteam/youchoose/dataset"
	"github.com/rushteam/youchoose/model"
	"github.com/rushteam/youchoose/recall"
	"github.com/rushteam/youchoose/store"
)

func runTrain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, path := newFlagSet("train", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := setup(*path, stderr)
	if err != nil {
		return err
	}
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()

	t, err := loadTable(ctx, cfg, logger)
	if err != nil {
		return err
	}
	d := cfg.Data
	loaders, err := dataset.RatingsDataloader(t,
		dataset.WithFractions(d.TrainFrac, d.TestFrac),
		dataset.WithBatchSize(d.BatchSize),
		dataset.WithNegatives(d.NumNegs),
		dataset.WithReweight(d.Reweight),
		dataset.WithShuffleTrain(d.Shuffle),
		dataset.WithRatingsSplitSeed(d.Seed),
		dataset.WithSampleSeed(d.Seed),
	)
	if err != nil {
		return err
	}
	logger.Info().
		Int("users", loaders.NumUsers).
		Int("items", loaders.NumItems).
		Int("train", loaders.Train.Len()).
		Int("validation", loaders.Validation.Len()).
		Int("test", loaders.Test.Len()).
		Msg("dataset ready")

	opts := cfg.Model.Options(loaders.NumUsers, loaders.NumItems)
	opts.Logger = &logger
	rec, err := model.New(cfg.Model.Method, opts)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	hist, err := model.Fit(ctx, rec, loaders, model.FitOptions{
		Epochs:  cfg.Model.Epochs,
		Logger:  &logger,
		Metrics: model.NewMetrics(reg),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "validation loss=%.6f accuracy=%.2f%%\n", hist.Validation.MeanLoss(), hist.Validation.Accuracy())
	fmt.Fprintf(stdout, "test       loss=%.6f accuracy=%.2f%%\n", hist.Test.MeanLoss(), hist.Test.Accuracy())

	if cfg.Model.Output != "" {
		if err := model.SaveFile(cfg.Model.Output, rec); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.Model.Output).Msg("model saved")
	}
	if cfg.Model.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.Model.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if cfg.Publish.Enabled {
		return publish(ctx, cfg, loaders, rec, logger)
	}
	return nil
}

func publish(ctx context.Context, cfg *config.Config, loaders *dataset.Loaders, rec model.Recommender, logger zerolog.Logger) error {
	s, err := store.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	users, items := loaders.Users.IDs(), loaders.Items.IDs()
	sets := loaders.Train.Dataset().InteractionSets()
	adapter := recall.NewStoreMFAdapter(s, cfg.Publish.KeyPrefix)

	if err := adapter.Publish(ctx, users, items, rec); err != nil {
		return err
	}
	if err := adapter.PublishSeen(ctx, recall.SeenLists(sets, loaders.Users, loaders.Items)); err != nil {
		return err
	}
	if cfg.Publish.TopN > 0 {
		if err := adapter.PublishTop(ctx, users, items, rec, cfg.Publish.TopN, sets); err != nil {
			return err
		}
	}
	logger.Info().
		Str("store", s.Name()).
		Str("prefix", cfg.Publish.KeyPrefix).
		Int("users", len(users)).
		Int("items", len(items)).
		Int("top_n", cfg.Publish.TopN).
		Msg("vectors published")
	return nil
}
