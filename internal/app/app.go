package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/db"
	"github.com/templui/goalkeeper/internal/persistence"
	"github.com/templui/goalkeeper/internal/repository"
	"github.com/templui/goalkeeper/internal/service"
	"github.com/templui/goalkeeper/internal/storage"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	AuthService *service.AuthService
	Hub         *service.Hub
}

// New wires the app for the configured mode: a database with accounts and
// one document per user in cloud mode, or a key-value slot in local mode.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.IsCloud() {
		return newCloud(cfg)
	}
	return newLocal(ctx, cfg)
}

func newCloud(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	documentRepository := repository.NewDocumentRepository(database)

	// Services
	authService := service.NewAuthService(
		userRepository,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.SecureCookies,
	)
	hub := service.NewCloudHub(documentRepository, authService, cfg.DefaultCurrency, cfg.Locale)

	return &App{
		Cfg:         cfg,
		DB:          database,
		AuthService: authService,
		Hub:         hub,
	}, nil
}

func newLocal(ctx context.Context, cfg *config.Config) (*App, error) {
	// Storage
	kv, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	hub := service.NewLocalHub(ctx, persistence.NewLocalBackend(kv), cfg.DefaultCurrency, cfg.Locale)

	return &App{
		Cfg: cfg,
		Hub: hub,
	}, nil
}

// Close tears down every session, waiting for pending writes, then closes
// the database.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
