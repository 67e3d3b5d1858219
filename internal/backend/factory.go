package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
	"fintrack/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With("component", "backend")}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// Migrate implements Factory.Migrate. The memory backend has no schema.
func (f *DefaultFactory) Migrate(ctx context.Context, config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	var err error
	switch config.Type {
	case SQLiteBackend:
		if err = os.MkdirAll(filepath.Dir(config.SQLiteDBPath), 0755); err == nil {
			err = sqlite.RunMigrations(config.SQLiteDBPath)
		}
	case PostgresBackend:
		err = postgres.RunMigrations(config.PostgresDSN)
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Memory backend has no migrations")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", config.Type, err)
	}
	f.logger.InfoContext(ctx, "Migrations applied", "backend", config.Type)
	return nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.Open(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	st, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seeds: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Store: st, Cleanup: st.Close}, nil
}
