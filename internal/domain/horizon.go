package domain

// VariantBase is the reference variant where any pool's mint resets the reference.
const VariantBase = "base"

// NoReference marks horizon rows before the variant's first mint.
const NoReference int64 = -1

// HorizonRow is one fixed-step checkpoint of a reference variant.
// Corresponds to horizons table in ClickHouse.
type HorizonRow struct {
	Variant        string     // "base" or a pool identifier
	BlockNumber    int64      // axis block
	Horizon        int64      // blocks since the previous axis row
	MinFlag        int        // 1 if the block is a mint of the variant
	ReferenceBlock int64      // governing mint block, NoReference if none yet
	Label          int        // 1-based position within the reference group
	Pools          []string   // pool order of CumVolumes
	CumVolumes     []*float64 // swap volume over (ReferenceBlock, BlockNumber], per pool
	CumVolumeBase  *float64   // sum of CumVolumes
}

// HasReference reports whether the row is governed by a mint.
func (r *HorizonRow) HasReference() bool {
	return r.ReferenceBlock != NoReference
}
