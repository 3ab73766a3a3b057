package backend

import (
	"context"
	"fmt"

	applog "shoplist/internal/log"
	"shoplist/internal/storage/file"
	"shoplist/internal/storage/memory"
	"shoplist/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend()
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend", applog.FieldBackend, MemoryBackend)
	return &BackendResult{KV: memory.New()}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	f.logger.Info("Initialized file backend",
		applog.FieldBackend, FileBackend,
		"data_directory", dataDir)

	return &BackendResult{KV: file.New(dataDir)}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		applog.FieldBackend, SQLiteBackend,
		"db_path", config.SQLiteDBPath)

	return &BackendResult{
		KV:      repo,
		Cleanup: repo.Close,
	}, nil
}
