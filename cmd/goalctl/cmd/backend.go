package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/db"
	"github.com/templui/goalkeeper/internal/persistence"
	"github.com/templui/goalkeeper/internal/repository"
	"github.com/templui/goalkeeper/internal/storage"
)

var errEmailRequired = errors.New("--email is required in cloud mode")

// openBackend returns the goal store the server would use for the given
// account. email is ignored in local mode.
func openBackend(ctx context.Context, cfg *config.Config, email string) (persistence.Backend, func(), error) {
	if !cfg.IsCloud() {
		kv, err := storage.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return persistence.NewLocalBackend(kv), func() {}, nil
	}

	if email == "" {
		return nil, nil, errEmailRequired
	}

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closeDB := func() { database.Close() }

	user, err := repository.NewUserRepository(database).ByEmail(email)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to find user %s: %w", email, err)
	}

	backend := persistence.NewCloudBackend(repository.NewDocumentRepository(database), user.ID)
	return backend, closeDB, nil
}

// localBackend opens the local store, refusing in cloud mode.
func localBackend(cfg *config.Config) (*persistence.LocalBackend, error) {
	if cfg.IsCloud() {
		return nil, fmt.Errorf("only available in local mode (unset DB_DRIVER)")
	}
	kv, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return persistence.NewLocalBackend(kv), nil
}
