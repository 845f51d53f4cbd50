package horizon

import (
	"fmt"
	"sort"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/lookup"
)

// Generator produces one horizon table per reference variant.
type Generator struct {
	step  int64
	pools []string
}

// NewGenerator creates a generator for the given step and pool order.
func NewGenerator(step int64, pools []string) *Generator {
	p := make([]string, len(pools))
	copy(p, pools)
	return &Generator{step: step, pools: p}
}

// Variants returns the variant names: base first, then one per pool.
func (g *Generator) Variants() []string {
	return append([]string{domain.VariantBase}, g.pools...)
}

// Generate builds the horizon table of every variant over a shared axis.
// swaps supplies per-block volumes; non-swap rows are ignored.
func (g *Generator) Generate(mints []domain.MintEvent, swaps []domain.Transaction) (map[string][]domain.HorizonRow, error) {
	flags, err := g.mintFlags(mints)
	if err != nil {
		return nil, err
	}

	all := make([]int64, len(mints))
	for i := range mints {
		all[i] = mints[i].BlockNumber
	}
	axis, err := BuildAxis(all, g.step)
	if err != nil {
		return nil, err
	}

	volumes, err := newVolumeIndex(g.pools, swaps)
	if err != nil {
		return nil, err
	}

	hz := horizons(axis)
	out := make(map[string][]domain.HorizonRow, len(flags))
	for _, variant := range g.Variants() {
		rows := make([]domain.HorizonRow, len(axis))
		isMint := flags[variant]

		ref := domain.NoReference
		label := 0
		for i, b := range axis {
			flag := 0
			if _, ok := isMint[b]; ok {
				flag = 1
				ref = b
				label = 0
			}
			label++

			rows[i] = domain.HorizonRow{
				Variant:        variant,
				BlockNumber:    b,
				Horizon:        hz[i],
				MinFlag:        flag,
				ReferenceBlock: ref,
				Label:          label,
				Pools:          g.pools,
			}
		}

		g.attachTargets(rows, volumes)
		out[variant] = rows
	}

	return out, nil
}

func (g *Generator) mintFlags(mints []domain.MintEvent) (map[string]map[int64]struct{}, error) {
	flags := make(map[string]map[int64]struct{}, len(g.pools)+1)
	for _, v := range g.Variants() {
		flags[v] = make(map[int64]struct{})
	}
	for i := range mints {
		set, ok := flags[mints[i].PoolID]
		if !ok || mints[i].PoolID == domain.VariantBase {
			return nil, fmt.Errorf("%w: mint on pool %s block %d", ErrUnknownPool, mints[i].PoolID, mints[i].BlockNumber)
		}
		set[mints[i].BlockNumber] = struct{}{}
		flags[domain.VariantBase][mints[i].BlockNumber] = struct{}{}
	}
	return flags, nil
}

// attachTargets gives each row with label > 1 the swaps in (previous row, row]
// and accumulates them within the reference group.
func (g *Generator) attachTargets(rows []domain.HorizonRow, volumes *volumeIndex) {
	cum := make([]float64, len(g.pools))
	for i := range rows {
		r := &rows[i]
		if !r.HasReference() {
			continue
		}
		if r.Label == 1 {
			for p := range cum {
				cum[p] = 0
			}
		} else {
			prev := rows[i-1].BlockNumber
			for p := range cum {
				cum[p] += volumes.sum(p, prev, r.BlockNumber)
			}
		}

		r.CumVolumes = make([]*float64, len(cum))
		base := 0.0
		for p := range cum {
			v := cum[p]
			r.CumVolumes[p] = &v
			base += v
		}
		r.CumVolumeBase = &base
	}
}

// volumeIndex holds per-pool swap blocks with prefix sums of USD volume.
type volumeIndex struct {
	blocks [][]int64
	prefix [][]float64 // prefix[p][i] = volume of the first i swaps of pool p
}

func newVolumeIndex(pools []string, swaps []domain.Transaction) (*volumeIndex, error) {
	pos := make(map[string]int, len(pools))
	for i, p := range pools {
		pos[p] = i
	}

	type entry struct {
		block  int64
		volume float64
	}
	perPool := make([][]entry, len(pools))
	for i := range swaps {
		if swaps[i].Type != domain.TransactionSwap {
			continue
		}
		p, ok := pos[swaps[i].PoolID]
		if !ok {
			return nil, fmt.Errorf("%w: swap %s on pool %s", ErrUnknownPool, swaps[i].ID, swaps[i].PoolID)
		}
		perPool[p] = append(perPool[p], entry{swaps[i].BlockNumber, swaps[i].AmountUSD})
	}

	idx := &volumeIndex{
		blocks: make([][]int64, len(pools)),
		prefix: make([][]float64, len(pools)),
	}
	for p, entries := range perPool {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].block < entries[j].block })
		idx.blocks[p] = make([]int64, len(entries))
		idx.prefix[p] = make([]float64, len(entries)+1)
		for i, e := range entries {
			idx.blocks[p][i] = e.block
			idx.prefix[p][i+1] = idx.prefix[p][i] + e.volume
		}
	}
	return idx, nil
}

// sum returns the volume of pool p over blocks (lo, hi].
func (v *volumeIndex) sum(p int, lo, hi int64) float64 {
	start, end := lookup.Range(v.blocks[p], lo, hi)
	return v.prefix[p][end] - v.prefix[p][start]
}
