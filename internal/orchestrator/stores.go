package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"dex-spillover-lab/internal/config"
	"dex-spillover-lab/internal/storage"
	chstore "dex-spillover-lab/internal/storage/clickhouse"
	"dex-spillover-lab/internal/storage/memory"
	pebblestore "dex-spillover-lab/internal/storage/pebble"
	"dex-spillover-lab/internal/storage/postgres"
)

// Stores bundles the persistence targets of every stage.
type Stores struct {
	Transactions storage.TransactionStore
	Chains       storage.MintChainStore
	Intervals    storage.IntervalStore
	Horizons     storage.HorizonStore
	Features     storage.FeatureStore

	closers []func() error
}

// NewMemoryStores returns empty in-memory stores.
func NewMemoryStores() *Stores {
	return &Stores{
		Transactions: memory.NewTransactionStore(),
		Chains:       memory.NewMintChainStore(),
		Intervals:    memory.NewIntervalStore(),
		Horizons:     memory.NewHorizonStore(),
		Features:     memory.NewFeatureStore(),
	}
}

// OpenStores opens the configured backend. The sql backend keeps the
// transaction and chain tables in PostgreSQL, horizons and features in
// ClickHouse and interval records in Pebble.
func OpenStores(ctx context.Context, cfg config.StorageConfig) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStores(), nil
	case config.BackendSQL:
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, cfg.Backend)
	}

	s := &Stores{}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s.closers = append(s.closers, func() error { pool.Close(); return nil })
	s.Transactions = postgres.NewTransactionStore(pool)
	s.Chains = postgres.NewMintChainStore(pool)

	conn, err := chstore.NewConn(ctx, cfg.ClickHouseDSN)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	s.closers = append(s.closers, conn.Close)
	s.Horizons = chstore.NewHorizonStore(conn)
	s.Features = chstore.NewFeatureStore(conn)

	intervals, err := pebblestore.NewIntervalStore(cfg.PebbleDir)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	s.closers = append(s.closers, intervals.Close)
	s.Intervals = intervals

	return s, nil
}

// Close releases every opened backend.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
