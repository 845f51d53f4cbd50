package reporting

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"dex-spillover-lab/internal/domain"
)

// ColumnSummary describes the distribution of one feature column's
// non-missing values.
type ColumnSummary struct {
	Variant string
	Column  string
	Count   int
	Mean    float64
	Stddev  float64 // sample standard deviation, 0 below two values
	Min     float64
	P10     float64
	Median  float64
	P90     float64
	Max     float64
}

// summarize computes the column summaries of one variant in column order.
// Columns without a single value are skipped.
func summarize(variant string, rows []*domain.FeatureRow) []ColumnSummary {
	if len(rows) == 0 {
		return nil
	}

	columns := rows[0].Columns
	out := make([]ColumnSummary, 0, len(columns))
	values := make([]float64, 0, len(rows))
	for i, c := range columns {
		values = values[:0]
		for _, r := range rows {
			if i < len(r.Values) && r.Values[i] != nil {
				values = append(values, *r.Values[i])
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, summarizeColumn(variant, c, values))
	}
	return out
}

func summarizeColumn(variant, column string, values []float64) ColumnSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	s := ColumnSummary{
		Variant: variant,
		Column:  column,
		Count:   n,
		Min:     sorted[0],
		P10:     percentile(sorted, 0.10),
		Median:  percentile(sorted, 0.50),
		P90:     percentile(sorted, 0.90),
		Max:     sorted[n-1],
	}
	if n < 2 {
		s.Mean = sorted[0]
		return s
	}
	s.Mean, s.Stddev = stat.MeanStdDev(sorted, nil)
	return s
}

// percentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
