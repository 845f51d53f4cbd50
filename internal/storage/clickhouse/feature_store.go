package clickhouse

import (
	"context"
	"fmt"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse.
type FeatureStore struct {
	conn *Conn
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(conn *Conn) *FeatureStore {
	return &FeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate (variant, block).
func (s *FeatureStore) InsertBulk(ctx context.Context, rows []*domain.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}

	perVariant := make(map[string][]int64)
	seen := make(map[string]map[int64]struct{})
	for _, r := range rows {
		if r == nil || r.Variant == "" || len(r.Columns) != len(r.Values) {
			return storage.ErrInvalidInput
		}
		if seen[r.Variant] == nil {
			seen[r.Variant] = make(map[int64]struct{})
		}
		if _, exists := seen[r.Variant][r.BlockNumber]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.Variant][r.BlockNumber] = struct{}{}
		perVariant[r.Variant] = append(perVariant[r.Variant], r.BlockNumber)
	}

	for variant, blocks := range perVariant {
		found, err := existingBlocks(ctx, s.conn, "features", variant, blocks)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if len(found) > 0 {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO features (
			variant, block_number, reference_block, horizon_label, horizon,
			hash_id, pool_id, columns, values
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		err = batch.Append(
			r.Variant, r.BlockNumber, r.ReferenceBlock, uint32(r.Label), r.Horizon,
			r.HashID, r.PoolID, r.Columns, r.Values,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByVariant retrieves the feature rows of one variant, ordered by block ASC.
func (s *FeatureStore) GetByVariant(ctx context.Context, variant string) ([]*domain.FeatureRow, error) {
	query := `
		SELECT
			variant, block_number, reference_block, horizon_label, horizon,
			hash_id, pool_id, columns, values
		FROM features
		WHERE variant = ?
		ORDER BY block_number ASC
	`

	rows, err := s.conn.Query(ctx, query, variant)
	if err != nil {
		return nil, fmt.Errorf("query by variant: %w", err)
	}
	defer rows.Close()

	return scanFeatureRows(rows)
}

// scanFeatureRows scans multiple rows.
func scanFeatureRows(rows chRows) ([]*domain.FeatureRow, error) {
	var result []*domain.FeatureRow

	for rows.Next() {
		var (
			r     domain.FeatureRow
			label uint32
		)

		err := rows.Scan(
			&r.Variant, &r.BlockNumber, &r.ReferenceBlock, &label, &r.Horizon,
			&r.HashID, &r.PoolID, &r.Columns, &r.Values,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		r.Label = int(label)

		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	return result, nil
}
