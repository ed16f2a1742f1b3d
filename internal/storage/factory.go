package storage

import (
	"fmt"

	"link-router/internal/config"
	"link-router/internal/storage/postgres"
	"link-router/internal/storage/sqlite"
)

// New builds the configured storage backend.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.DatabaseType {
	case "sqlite":
		return sqlite.NewAdapter(&sqlite.Config{
			DatabasePath: cfg.DatabasePath,
		})
	case "postgres", "postgresql":
		return postgres.NewAdapter(&postgres.Config{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			Database: cfg.PostgresDB,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			SSLMode:  cfg.PostgresSSLMode,
		})
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DatabaseType)
	}
}
