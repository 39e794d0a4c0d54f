package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/yamagen-seiki/plantrack/internal/model"
	"github.com/yamagen-seiki/plantrack/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "plantrack.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens the configured store and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func classifier() *model.Classifier {
	if len(cfg.Classification.InHouse) == 0 && len(cfg.Classification.Outsourced) == 0 {
		return model.DefaultClassifier()
	}
	return model.NewClassifier(cfg.Classification.InHouse, cfg.Classification.Outsourced)
}
