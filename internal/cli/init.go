// Package cli holds the startup steps shared by the kakeibo binaries.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"kakeibo/internal/config"
	applog "kakeibo/internal/log"
	"kakeibo/internal/storage"
)

// Bootstrap loads the optional .env file and configures the default
// logger for the given component.
func Bootstrap(component string) *applog.Logger {
	// .env is for local development; absence is fine in production.
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: component})
	applog.SetDefault(logger)
	return logger
}

// LoadConfig loads and validates configuration, exiting on failure.
func LoadConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenRepository opens the SQLite repository, exiting on failure.
func OpenRepository(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
