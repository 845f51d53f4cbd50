package clickhouse

import (
	"context"
	"fmt"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// HorizonStore implements storage.HorizonStore using ClickHouse.
type HorizonStore struct {
	conn *Conn
}

// NewHorizonStore creates a new HorizonStore.
func NewHorizonStore(conn *Conn) *HorizonStore {
	return &HorizonStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HorizonStore = (*HorizonStore)(nil)

// InsertBulk adds multiple rows. Fails entire batch on duplicate (variant, block).
func (s *HorizonStore) InsertBulk(ctx context.Context, rows []*domain.HorizonRow) error {
	if len(rows) == 0 {
		return nil
	}

	perVariant := make(map[string][]int64)
	seen := make(map[string]map[int64]struct{})
	for _, r := range rows {
		if r == nil || r.Variant == "" {
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
		found, err := existingBlocks(ctx, s.conn, "horizons", variant, blocks)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if len(found) > 0 {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO horizons (
			variant, block_number, horizon, min_flag, reference_block, horizon_label,
			pools, cum_volumes, cum_volume_base
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		pools := r.Pools
		if pools == nil {
			pools = []string{}
		}
		volumes := r.CumVolumes
		if volumes == nil {
			volumes = []*float64{}
		}
		err = batch.Append(
			r.Variant, r.BlockNumber, r.Horizon, uint8(r.MinFlag), r.ReferenceBlock, uint32(r.Label),
			pools, volumes, r.CumVolumeBase,
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

// GetByVariant retrieves the horizon table of one variant, ordered by block ASC.
func (s *HorizonStore) GetByVariant(ctx context.Context, variant string) ([]*domain.HorizonRow, error) {
	query := `
		SELECT
			variant, block_number, horizon, min_flag, reference_block, horizon_label,
			pools, cum_volumes, cum_volume_base
		FROM horizons
		WHERE variant = ?
		ORDER BY block_number ASC
	`

	rows, err := s.conn.Query(ctx, query, variant)
	if err != nil {
		return nil, fmt.Errorf("query by variant: %w", err)
	}
	defer rows.Close()

	return scanHorizonRows(rows)
}

// scanHorizonRows scans multiple rows.
func scanHorizonRows(rows chRows) ([]*domain.HorizonRow, error) {
	var result []*domain.HorizonRow

	for rows.Next() {
		var (
			r       domain.HorizonRow
			minFlag uint8
			label   uint32
		)

		err := rows.Scan(
			&r.Variant, &r.BlockNumber, &r.Horizon, &minFlag, &r.ReferenceBlock, &label,
			&r.Pools, &r.CumVolumes, &r.CumVolumeBase,
		)
		if err != nil {
			return nil, fmt.Errorf("scan horizon row: %w", err)
		}
		r.MinFlag = int(minFlag)
		r.Label = int(label)
		if len(r.CumVolumes) == 0 {
			r.CumVolumes = nil
		}

		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate horizon rows: %w", err)
	}

	return result, nil
}
