// Package app assembles an interpreter from configuration. Both the CLI
// and the standalone server start from here.
package app

import (
	"fmt"
	"log/slog"

	"github.com/kilupskalvis/gitsim/internal/config"
	"github.com/kilupskalvis/gitsim/internal/interp"
	"github.com/kilupskalvis/gitsim/internal/repo"
	"github.com/kilupskalvis/gitsim/internal/store"
)

// Open opens the configured store and builds an interpreter on top of it,
// restoring any saved state. The caller closes the store.
func Open(cfg *config.Config, logger *slog.Logger) (*interp.Interpreter, store.StateStore, error) {
	st, err := store.Open(cfg.Storage, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	opts, err := RepoOptions(cfg.IDScheme, cfg.Seed)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	in, err := interp.New(interp.Config{
		Tool:   cfg.Tool,
		Repo:   opts,
		Store:  st,
		Logger: logger,
	})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return in, st, nil
}

// RepoOptions returns repository options for an id scheme. Ids and branch
// colours share one random source seeded with seed (0 means time-seeded).
func RepoOptions(scheme string, seed int64) (*repo.Options, error) {
	opts := repo.DefaultOptions()
	opts.Rand = repo.NewRand(seed)
	ids, err := repo.NewIDGenerator(scheme, opts.Rand)
	if err != nil {
		return nil, err
	}
	opts.IDs = ids
	return opts, nil
}
