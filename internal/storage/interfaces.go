package storage

import (
	"context"

	"dex-spillover-lab/internal/domain"
)

// TransactionStore provides access to the reduced transaction table.
type TransactionStore interface {
	// InsertBulk adds multiple transactions atomically. Fails entire batch on duplicate id.
	InsertBulk(ctx context.Context, txs []*domain.Transaction) error

	// GetByPool retrieves all transactions of a pool, ordered by (block, timestamp, id) ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.Transaction, error)

	// GetByBlockRange retrieves transactions of all pools within [start, end] (inclusive),
	// ordered by (block, timestamp, id) ASC.
	GetByBlockRange(ctx context.Context, start, end int64) ([]*domain.Transaction, error)
}

// MintChainStore provides access to the per-mint chain/hash table.
type MintChainStore interface {
	// InsertBulk adds multiple chain rows atomically. Fails entire batch on duplicate hashid.
	InsertBulk(ctx context.Context, chains []*domain.MintChains) error

	// GetByHashID retrieves one chain row. Returns ErrNotFound if not exists.
	GetByHashID(ctx context.Context, hashID int64) (*domain.MintChains, error)

	// GetByPool retrieves all chain rows of a pool, ordered by block ASC.
	GetByPool(ctx context.Context, poolID string) ([]*domain.MintChains, error)
}

// IntervalStore provides access to per-hash interval records.
type IntervalStore interface {
	// InsertBulk adds multiple records atomically. Fails entire batch on duplicate (hashid, side, label).
	InsertBulk(ctx context.Context, records []*domain.IntervalRecord) error

	// GetByHashID retrieves the records of one event, ordered by (side, label) ASC.
	// Returns an empty slice if the event has no intervals.
	GetByHashID(ctx context.Context, hashID int64) ([]*domain.IntervalRecord, error)
}

// HorizonStore provides access to per-variant horizon tables.
type HorizonStore interface {
	// InsertBulk adds multiple rows atomically. Fails entire batch on duplicate (variant, block).
	InsertBulk(ctx context.Context, rows []*domain.HorizonRow) error

	// GetByVariant retrieves the horizon table of one variant, ordered by block ASC.
	GetByVariant(ctx context.Context, variant string) ([]*domain.HorizonRow, error)
}

// FeatureStore provides access to the assembled feature table.
type FeatureStore interface {
	// InsertBulk adds multiple rows atomically. Fails entire batch on duplicate (variant, block).
	InsertBulk(ctx context.Context, rows []*domain.FeatureRow) error

	// GetByVariant retrieves the feature rows of one variant, ordered by block ASC.
	GetByVariant(ctx context.Context, variant string) ([]*domain.FeatureRow, error)
}
