// Package features joins horizon tables with direct-pool and spillover
// records into the final feature table.
package features

import (
	"fmt"
	"log/slog"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/interval"
	"dex-spillover-lab/internal/spillover"
)

// Join stage names used in loss reports.
const (
	StageDirectPool = "direct_pool"
	StageSpillover  = "spillover"
)

// Leading column names shared by every variant.
const (
	ColBlockNumber    = "blockNumber"
	ColHorizon        = "horizon"
	ColMinFlag        = "min_flag"
	ColReferenceBlock = "reference_blockNumber"
	ColHorizonLabel   = "horizon_label"
	ColCumVolumeBase  = "cum_volume_base"
)

type eventKey struct {
	pool  string
	block int64
}

// Assembler builds feature rows for every reference variant.
type Assembler struct {
	pools   []string
	depth   int
	columns []string
	schema  []interval.Column
	logger  *slog.Logger
}

// NewAssembler creates an assembler for a pool order and chain depth.
func NewAssembler(pools []string, depth int, logger *slog.Logger) *Assembler {
	p := make([]string, len(pools))
	copy(p, pools)
	schema := interval.Schema(depth)
	return &Assembler{
		pools:   p,
		depth:   depth,
		columns: Header(p, depth),
		schema:  schema,
		logger:  logger,
	}
}

// Header returns the output columns: horizon columns, cumulative volumes,
// the direct-pool schema, then the spillover schema.
func Header(pools []string, depth int) []string {
	cols := []string{ColBlockNumber, ColHorizon, ColMinFlag, ColReferenceBlock, ColHorizonLabel}
	for _, p := range pools {
		cols = append(cols, CumVolumeColumn(p))
	}
	cols = append(cols, ColCumVolumeBase)
	cols = append(cols, interval.ColumnNames(interval.Schema(depth))...)
	return append(cols, spillover.Columns(depth)...)
}

// CumVolumeColumn returns the cumulative volume column of a pool.
func CumVolumeColumn(pool string) string {
	return "cum_volume_" + pool
}

// Columns returns the header this assembler emits.
func (a *Assembler) Columns() []string {
	return a.columns
}

// Assemble joins one variant's horizon rows with the records of the mint at
// each row's reference block. Both joins are inner; rows without a matching
// record are dropped and reported.
func (a *Assembler) Assemble(
	variant string,
	rows []domain.HorizonRow,
	direct []domain.DirectPoolRecord,
	spill []domain.SpilloverRecord,
) ([]domain.FeatureRow, []domain.LossReport, error) {
	directIdx := make(map[eventKey]*domain.DirectPoolRecord, len(direct))
	for i := range direct {
		directIdx[eventKey{direct[i].PoolID, direct[i].BlockNumber}] = &direct[i]
	}
	spillIdx := make(map[int64]*domain.SpilloverRecord, len(spill))
	for i := range spill {
		spillIdx[spill[i].HashID] = &spill[i]
	}

	type joined struct {
		row    *domain.HorizonRow
		direct *domain.DirectPoolRecord
	}
	stage1 := make([]joined, 0, len(rows))
	for i := range rows {
		if !rows[i].HasReference() {
			continue
		}
		if rec := a.match(variant, rows[i].ReferenceBlock, directIdx); rec != nil {
			stage1 = append(stage1, joined{row: &rows[i], direct: rec})
		}
	}
	directLoss := domain.LossReport{Variant: variant, Stage: StageDirectPool, Before: len(rows), After: len(stage1)}

	out := make([]domain.FeatureRow, 0, len(stage1))
	for _, j := range stage1 {
		sp, ok := spillIdx[j.direct.HashID]
		if !ok {
			continue
		}
		out = append(out, a.row(variant, j.row, j.direct, sp))
	}
	spillLoss := domain.LossReport{Variant: variant, Stage: StageSpillover, Before: len(stage1), After: len(out)}

	losses := []domain.LossReport{directLoss, spillLoss}
	if a.logger != nil {
		for _, l := range losses {
			a.logger.Info("join data loss",
				slog.String("variant", l.Variant),
				slog.String("stage", l.Stage),
				slog.Int("before", l.Before),
				slog.Int("after", l.After),
				slog.Float64("lost_pct", l.Percent()),
			)
		}
	}

	expected := Header(a.pools, a.depth)
	for i := range out {
		if err := interval.ValidateColumns(expected, out[i].Columns); err != nil {
			return nil, losses, fmt.Errorf("variant %s block %d: %w", variant, out[i].BlockNumber, err)
		}
		if len(out[i].Values) != len(expected) {
			return nil, losses, fmt.Errorf("%w: variant %s block %d has %d values for %d columns",
				interval.ErrSchemaViolation, variant, out[i].BlockNumber, len(out[i].Values), len(expected))
		}
	}

	return out, losses, nil
}

// match returns the direct-pool record of the mint governing a reference block.
// The base variant takes the first configured pool with a mint at that block.
func (a *Assembler) match(variant string, ref int64, idx map[eventKey]*domain.DirectPoolRecord) *domain.DirectPoolRecord {
	if variant != domain.VariantBase {
		return idx[eventKey{variant, ref}]
	}
	for _, p := range a.pools {
		if rec, ok := idx[eventKey{p, ref}]; ok {
			return rec
		}
	}
	return nil
}

func (a *Assembler) row(variant string, h *domain.HorizonRow, d *domain.DirectPoolRecord, s *domain.SpilloverRecord) domain.FeatureRow {
	values := make([]*float64, 0, len(a.columns))
	values = append(values,
		num(float64(h.BlockNumber)),
		num(float64(h.Horizon)),
		num(float64(h.MinFlag)),
		num(float64(h.ReferenceBlock)),
		num(float64(h.Label)),
	)
	for p := range a.pools {
		var v *float64
		if p < len(h.CumVolumes) {
			v = h.CumVolumes[p]
		}
		values = append(values, v)
	}
	values = append(values, h.CumVolumeBase)
	values = append(values, interval.Flatten(d, a.schema)...)
	values = append(values, spillover.Flatten(s, a.depth)...)

	return domain.FeatureRow{
		Variant:        variant,
		ReferenceBlock: h.ReferenceBlock,
		Label:          h.Label,
		BlockNumber:    h.BlockNumber,
		Horizon:        h.Horizon,
		HashID:         d.HashID,
		PoolID:         d.PoolID,
		Columns:        a.columns,
		Values:         values,
	}
}

// MissingCounts returns the number of missing values per column.
func MissingCounts(rows []domain.FeatureRow) map[string]int {
	out := make(map[string]int)
	for i := range rows {
		for j, c := range rows[i].Columns {
			if rows[i].Values[j] == nil {
				out[c]++
			}
		}
	}
	return out
}

func num(v float64) *float64 {
	return &v
}
