package main

import (
	"context"
	"flag"
	"io"

	"github.com/rs/zerolog"

	"github.com/rushteam/youchoose/config"
	"github.com/rushteam/youchoose/core"
	"github.com/rushteam/youchoose/ingestion"
	"github.com/rushteam/youchoose/pkg/dsl"
	"github.com/rushteam/youchoose/pkg/logging"
)

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "path to a YAML config file (YOUCHOOSE_* env vars override it)")
	return fs, path
}

// setup 加载配置并初始化日志。
func setup(path string, stderr io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg.Logging.Output = stderr
	logger, err := logging.Init(cfg.Logging)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// loadTable 从 CSV 或 SQL 读取交互表，并应用行过滤表达式。
func loadTable(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*core.Table, error) {
	var (
		t   *core.Table
		err error
	)
	if cfg.Data.Path != "" {
		t, err = ingestion.ReadCSVFile(cfg.Data.Path, cfg.Data.Columns())
	} else {
		var db *ingestion.SQLDatabase
		db, err = ingestion.Open(ctx, cfg.Database, ingestion.WithLogger(log))
		if err != nil {
			return nil, err
		}
		defer db.Close()
		t, err = db.Interactions(ctx, cfg.Data.Query, cfg.Data.Columns())
	}
	if err != nil {
		return nil, err
	}
	log.Info().Int("rows", t.Len()).Msg("interactions loaded")

	if cfg.Data.Filter == "" {
		return t, nil
	}
	filtered, err := dsl.FilterTable(t, cfg.Data.Filter)
	if err != nil {
		return nil, err
	}
	log.Info().Str("filter", cfg.Data.Filter).Int("rows", filtered.Len()).Msg("interactions filtered")
	return filtered, nil
}
