package domain

// FeatureRow is one row of the assembled feature table.
// Corresponds to features table in ClickHouse.
type FeatureRow struct {
	Variant        string     // reference variant
	ReferenceBlock int64      // governing mint block
	Label          int        // horizon label
	BlockNumber    int64      // axis block
	Horizon        int64      // blocks since the previous axis row
	HashID         int64      // mint event joined at ReferenceBlock
	PoolID         string     // pool of that mint event
	Columns        []string   // enumerated column names, shared across rows
	Values         []*float64 // one value per column, NULL means missing
}

// Value returns the value of the named column.
func (r *FeatureRow) Value(column string) (*float64, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// LossReport describes rows lost at one pipeline join.
type LossReport struct {
	Variant string // reference variant, empty for global stages
	Stage   string // join or filter name
	Before  int    // rows entering the stage
	After   int    // rows leaving the stage
}

// Lost returns the number of dropped rows.
func (l LossReport) Lost() int {
	return l.Before - l.After
}

// Percent returns the share of dropped rows, 0 when nothing entered.
func (l LossReport) Percent() float64 {
	if l.Before == 0 {
		return 0
	}
	return float64(l.Lost()) / float64(l.Before) * 100
}
