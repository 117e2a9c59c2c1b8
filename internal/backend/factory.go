// Package backend opens the configured ledger store and the service that
// writes through it.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerkeep/internal/amqp"
	"ledgerkeep/internal/ledger"
	"ledgerkeep/internal/ledger/csvfile"
	"ledgerkeep/internal/ledger/memory"
	"ledgerkeep/internal/services"
	"ledgerkeep/internal/storage"
)

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store ledger.Store
		err   error
	)
	switch config.Type {
	case CSVBackend:
		store, err = csvfile.Open(config.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV ledger: %w", err)
		}
		f.logger.Info("Initialized CSV backend", "path", config.CSVPath)
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	svc := services.NewLedgerService(store, f.publisher(ctx, config))
	return &BackendResult{
		Store:   store,
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

// publisher connects to the broker when one is configured. A broker that
// cannot be reached disables events instead of failing the backend.
func (f *DefaultFactory) publisher(ctx context.Context, config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
