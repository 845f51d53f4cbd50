package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// MintChainStore implements storage.MintChainStore using PostgreSQL.
// Chains are stored as their non-null prefix in BIGINT[] columns.
type MintChainStore struct {
	pool *Pool
}

// NewMintChainStore creates a new MintChainStore.
func NewMintChainStore(pool *Pool) *MintChainStore {
	return &MintChainStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MintChainStore = (*MintChainStore)(nil)

// InsertBulk adds multiple chain rows atomically. Fails entire batch on any duplicate.
func (s *MintChainStore) InsertBulk(ctx context.Context, chains []*domain.MintChains) error {
	if len(chains) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO mint_chains (
			hash_id, pool_id, block_number, timestamp, chain_depth, same_chain, other_chain
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, c := range chains {
		if c == nil || c.PoolID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			c.HashID,
			c.PoolID,
			c.BlockNumber,
			c.Timestamp,
			c.Same.Depth(),
			c.Same.ValidBlocks(),
			c.Other.ValidBlocks(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert mint chain in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByHashID retrieves one chain row. Returns ErrNotFound if not exists.
func (s *MintChainStore) GetByHashID(ctx context.Context, hashID int64) (*domain.MintChains, error) {
	query := `
		SELECT hash_id, pool_id, block_number, timestamp, chain_depth, same_chain, other_chain
		FROM mint_chains
		WHERE hash_id = $1
	`

	c, err := scanMintChain(s.pool.QueryRow(ctx, query, hashID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get mint chain by hash id: %w", err)
	}
	return c, nil
}

// GetByPool retrieves all chain rows of a pool, ordered by block ASC.
func (s *MintChainStore) GetByPool(ctx context.Context, poolID string) ([]*domain.MintChains, error) {
	query := `
		SELECT hash_id, pool_id, block_number, timestamp, chain_depth, same_chain, other_chain
		FROM mint_chains
		WHERE pool_id = $1
		ORDER BY block_number ASC
	`

	rows, err := s.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, fmt.Errorf("get mint chains by pool: %w", err)
	}
	defer rows.Close()

	var result []*domain.MintChains
	for rows.Next() {
		c, err := scanMintChain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mint chain row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint chain rows: %w", err)
	}

	return result, nil
}

func scanMintChain(row pgx.Row) (*domain.MintChains, error) {
	var (
		c           domain.MintChains
		depth       int
		same, other []int64
	)
	if err := row.Scan(&c.HashID, &c.PoolID, &c.BlockNumber, &c.Timestamp, &depth, &same, &other); err != nil {
		return nil, err
	}
	c.Same = domain.ChainFromBlocks(depth, same)
	c.Other = domain.ChainFromBlocks(depth, other)
	return &c, nil
}
