package horizon

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/lookup"
)

// WideTable is the horizon table of all variants computed side by side.
// Per-variant slices are indexed [variant][row].
type WideTable struct {
	Variants   []string
	Blocks     []int64
	Horizons   []int64
	MinFlags   [][]int
	References [][]int64
	Labels     [][]int
}

// BuildWide computes every variant by searching each axis block's reference
// among the variant's mints, independent of the forward-filling generator.
func BuildWide(mints []domain.MintEvent, step int64, pools []string) (*WideTable, error) {
	variants := append([]string{domain.VariantBase}, pools...)
	perVariant := make(map[string][]int64, len(variants))
	all := make([]int64, 0, len(mints))
	for i := range mints {
		if _, ok := indexOf(pools, mints[i].PoolID); !ok {
			return nil, fmt.Errorf("%w: mint on pool %s block %d", ErrUnknownPool, mints[i].PoolID, mints[i].BlockNumber)
		}
		perVariant[mints[i].PoolID] = append(perVariant[mints[i].PoolID], mints[i].BlockNumber)
		all = append(all, mints[i].BlockNumber)
	}
	perVariant[domain.VariantBase] = all

	axis, err := BuildAxis(all, step)
	if err != nil {
		return nil, err
	}

	w := &WideTable{
		Variants:   variants,
		Blocks:     axis,
		Horizons:   horizons(axis),
		MinFlags:   make([][]int, len(variants)),
		References: make([][]int64, len(variants)),
		Labels:     make([][]int, len(variants)),
	}

	for v, name := range variants {
		refs := uniqueSorted(perVariant[name])
		w.MinFlags[v] = make([]int, len(axis))
		w.References[v] = make([]int64, len(axis))
		w.Labels[v] = make([]int, len(axis))

		for i, b := range axis {
			j, ok := lookup.AtOrBefore(refs, b)
			if !ok {
				w.References[v][i] = domain.NoReference
				w.Labels[v][i] = i + 1
				continue
			}
			ref := refs[j]
			if ref == b {
				w.MinFlags[v][i] = 1
			}
			refRow, _ := lookup.Exact(axis, ref)
			w.References[v][i] = ref
			w.Labels[v][i] = i - refRow + 1
		}
	}

	return w, nil
}

func indexOf(s []string, v string) (int, bool) {
	for i := range s {
		if s[i] == v {
			return i, true
		}
	}
	return 0, false
}

// checkRow is the compared projection of a horizon row.
type checkRow struct {
	BlockNumber    int64
	Horizon        int64
	MinFlag        int
	ReferenceBlock int64
	Label          int
}

// ValidateConsistency compares the generator's tables with the wide table.
// The base variant is compared on block, horizon, min_flag, reference and
// label; pool variants on block, min_flag and reference.
func ValidateConsistency(wide *WideTable, perVariant map[string][]domain.HorizonRow) error {
	for v, name := range wide.Variants {
		rows, ok := perVariant[name]
		if !ok {
			return fmt.Errorf("%w: variant %s missing", ErrInconsistentVariant, name)
		}
		full := name == domain.VariantBase

		want := make([]checkRow, len(wide.Blocks))
		for i := range wide.Blocks {
			want[i] = checkRow{
				BlockNumber:    wide.Blocks[i],
				MinFlag:        wide.MinFlags[v][i],
				ReferenceBlock: wide.References[v][i],
			}
			if full {
				want[i].Horizon = wide.Horizons[i]
				want[i].Label = wide.Labels[v][i]
			}
		}

		got := make([]checkRow, len(rows))
		for i := range rows {
			got[i] = checkRow{
				BlockNumber:    rows[i].BlockNumber,
				MinFlag:        rows[i].MinFlag,
				ReferenceBlock: rows[i].ReferenceBlock,
			}
			if full {
				got[i].Horizon = rows[i].Horizon
				got[i].Label = rows[i].Label
			}
		}

		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Errorf("%w: variant %s (-wide +generated):\n%s", ErrInconsistentVariant, name, diff)
		}
	}
	return nil
}
