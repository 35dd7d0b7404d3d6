package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/search"
	"gorm.io/gorm"
)

// deps holds the long-lived collaborators shared by every command.
type deps struct {
	cfg   *config.Config
	db    *gorm.DB
	index search.Index
}

func bootstrap(ctx context.Context) (*deps, error) {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	index, err := newIndex(cfg, db)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	if err := index.EnsureIndex(ctx); err != nil {
		// The API still serves reads from an empty result set and the
		// index is created on first write.
		slog.Warn("search index not ready", "backend", cfg.SearchBackend, "error", err)
	}

	return &deps{cfg: cfg, db: db, index: index}, nil
}

func newIndex(cfg *config.Config, db *gorm.DB) (search.Index, error) {
	switch cfg.SearchBackend {
	case config.SearchBackendElastic:
		ix, err := search.NewElasticIndex(search.ElasticConfig{
			Addresses: cfg.ElasticsearchURLs,
			Username:  cfg.ElasticsearchUsername,
			Password:  cfg.ElasticsearchPassword,
			Index:     cfg.SearchIndex,
		})
		if err != nil {
			return nil, err
		}
		return ix, nil
	case config.SearchBackendDatabase:
		return search.NewDBIndex(db), nil
	default:
		return nil, fmt.Errorf("unsupported SEARCH_BACKEND %q", cfg.SearchBackend)
	}
}

func (d *deps) close() {
	if err := database.Close(d.db); err != nil {
		slog.Error("database close error", "error", err)
	}
}

var errAdminTokenRequired = errors.New("ADMIN_TOKEN environment variable is required")
