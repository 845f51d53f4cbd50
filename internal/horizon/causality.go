package horizon

import (
	"fmt"
	"math"
	"sort"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/lookup"
)

// causalityTolerance bounds the relative error between incremental and direct sums.
const causalityTolerance = 1e-9

type poolSwaps struct {
	blocks  []int64
	volumes []float64
}

// VerifyCausality recomputes every cumulative volume by summing the swaps in
// (reference, row] directly and fails on the first row that disagrees.
// Rows without a reference must carry no volumes.
func VerifyCausality(rows []domain.HorizonRow, swaps []domain.Transaction) error {
	byPool := make(map[string]*poolSwaps)
	sorted := make([]*domain.Transaction, 0, len(swaps))
	for i := range swaps {
		if swaps[i].Type == domain.TransactionSwap {
			sorted = append(sorted, &swaps[i])
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].BlockNumber < sorted[j].BlockNumber })
	for _, s := range sorted {
		ps, ok := byPool[s.PoolID]
		if !ok {
			ps = &poolSwaps{}
			byPool[s.PoolID] = ps
		}
		ps.blocks = append(ps.blocks, s.BlockNumber)
		ps.volumes = append(ps.volumes, s.AmountUSD)
	}

	for i := range rows {
		r := &rows[i]
		if !r.HasReference() {
			if r.CumVolumes != nil || r.CumVolumeBase != nil {
				return fmt.Errorf("%w: variant %s block %d has volumes without a reference", ErrCausality, r.Variant, r.BlockNumber)
			}
			continue
		}
		if len(r.CumVolumes) != len(r.Pools) || r.CumVolumeBase == nil {
			return fmt.Errorf("%w: variant %s block %d has %d volumes for %d pools",
				ErrCausality, r.Variant, r.BlockNumber, len(r.CumVolumes), len(r.Pools))
		}

		base := 0.0
		for p, pool := range r.Pools {
			want := 0.0
			if ps, ok := byPool[pool]; ok {
				start, end := lookup.Range(ps.blocks, r.ReferenceBlock, r.BlockNumber)
				for _, v := range ps.volumes[start:end] {
					want += v
				}
			}
			base += want
			if r.CumVolumes[p] == nil || !approxEqual(*r.CumVolumes[p], want) {
				return fmt.Errorf("%w: variant %s block %d pool %s: got %v, want %v over (%d, %d]",
					ErrCausality, r.Variant, r.BlockNumber, pool, deref(r.CumVolumes[p]), want, r.ReferenceBlock, r.BlockNumber)
			}
		}
		if !approxEqual(*r.CumVolumeBase, base) {
			return fmt.Errorf("%w: variant %s block %d base volume %v, want %v",
				ErrCausality, r.Variant, r.BlockNumber, *r.CumVolumeBase, base)
		}
	}
	return nil
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= causalityTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
