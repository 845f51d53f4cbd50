package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

var transactionColumns = []string{
	"id", "hash", "pool_id", "tx_type", "block_number", "timestamp",
	"amount0", "amount1", "amount_usd", "tick_lower", "tick_upper",
	"size", "width", "pool_price",
}

// InsertBulk adds multiple transactions atomically via COPY. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	for _, t := range txs {
		if t == nil || t.ID == "" || t.PoolID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		transactionColumns,
		pgx.CopyFromSlice(len(txs), func(i int) ([]any, error) {
			t := txs[i]
			return []any{
				t.ID, t.Hash, t.PoolID, string(t.Type), t.BlockNumber, t.Timestamp,
				t.Amount0, t.Amount1, t.AmountUSD, t.TickLower, t.TickUpper,
				t.Size, t.Width, t.PoolPrice,
			}, nil
		}),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy transactions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPool retrieves all transactions of a pool, ordered by (block, timestamp, id) ASC.
func (s *TransactionStore) GetByPool(ctx context.Context, poolID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, hash, pool_id, tx_type, block_number, timestamp,
		       amount0, amount1, amount_usd, tick_lower, tick_upper, size, width, pool_price
		FROM transactions
		WHERE pool_id = $1
		ORDER BY block_number ASC, timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by pool: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByBlockRange retrieves transactions within [start, end] (inclusive).
func (s *TransactionStore) GetByBlockRange(ctx context.Context, start, end int64) ([]*domain.Transaction, error) {
	query := `
		SELECT id, hash, pool_id, tx_type, block_number, timestamp,
		       amount0, amount1, amount_usd, tick_lower, tick_upper, size, width, pool_price
		FROM transactions
		WHERE block_number >= $1 AND block_number <= $2
		ORDER BY block_number ASC, timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get transactions by block range: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var (
			t      domain.Transaction
			txType string
		)

		err := rows.Scan(
			&t.ID,
			&t.Hash,
			&t.PoolID,
			&txType,
			&t.BlockNumber,
			&t.Timestamp,
			&t.Amount0,
			&t.Amount1,
			&t.AmountUSD,
			&t.TickLower,
			&t.TickUpper,
			&t.Size,
			&t.Width,
			&t.PoolPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		t.Type = domain.TransactionType(txType)

		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
