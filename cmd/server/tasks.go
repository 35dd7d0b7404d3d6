package main

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
)

// runMigrate relies on bootstrap, which migrates the schema and ensures the
// search index exists.
func runMigrate(ctx context.Context) error {
	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	slog.Info("migration completed", "driver", d.cfg.DBDriver, "search_backend", d.cfg.SearchBackend)
	return nil
}

func runReindex(ctx context.Context) error {
	d, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	n, err := services.NewCompanyService(d.db, d.index).Reindex(ctx)
	if err != nil {
		slog.Error("reindex failed", "indexed", n, "error", err)
		return err
	}
	slog.Info("reindex completed", "indexed", n)
	return nil
}
