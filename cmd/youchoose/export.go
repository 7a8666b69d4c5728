package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rushteam/youchoose/ingestion"
)

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, path := newFlagSet("export", stderr)
	dir := fs.String("dir", ".", "output directory")
	orders := fs.Int("orders", 1000, "number of most recent prior orders to export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := setup(*path, stderr)
	if err != nil {
		return err
	}

	db, err := ingestion.Open(ctx, cfg.Database, ingestion.WithLogger(logger))
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := ingestion.ExportAdjacency(ctx, db, *dir, *orders)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s\t%d rows\n", out.AdjacencyPath, out.AdjacencyRows)
	fmt.Fprintf(stdout, "%s\t%d rows\n", out.PriorOrdersPath, out.PriorOrdersRows)
	return nil
}
