package interval

import (
	"fmt"
	"sort"
	"strings"

	"dex-spillover-lab/internal/domain"
)

// Metric names a PositionStats field.
type Metric string

const (
	MetricBlockTime  Metric = "blocktime"
	MetricSize       Metric = "size"
	MetricWidth      Metric = "width"
	MetricVolatility Metric = "volatility"
	MetricRateUSD    Metric = "rate_usd"
	MetricRateCount  Metric = "rate_count"
	MetricAvgUSD     Metric = "avg_usd"
)

// Column maps one output column to a side, chain position and metric.
type Column struct {
	Name     string
	Side     domain.ChainSide
	Position int
	Metric   Metric
}

// Schema enumerates the direct-pool columns for a chain depth, in output order.
func Schema(depth int) []Column {
	var cols []Column
	for _, side := range []domain.ChainSide{domain.SideSame, domain.SideOther} {
		s := string(side)
		if side == domain.SideSame {
			cols = append(cols,
				Column{Name: "s0", Side: side, Position: 0, Metric: MetricSize},
				Column{Name: "w0", Side: side, Position: 0, Metric: MetricWidth},
			)
		}
		for _, m := range []struct {
			prefix string
			metric Metric
		}{
			{"bl", MetricBlockTime},
			{"sl", MetricSize},
			{"wl", MetricWidth},
		} {
			for l := 1; l < depth; l++ {
				cols = append(cols, Column{Name: fmt.Sprintf("%s%s_%d", m.prefix, s, l), Side: side, Position: l, Metric: m.metric})
			}
		}
		if side == domain.SideSame {
			for l := 0; l < depth-1; l++ {
				cols = append(cols, Column{Name: fmt.Sprintf("vol_0_%d", l+1), Side: side, Position: l, Metric: MetricVolatility})
			}
		}
		for _, m := range []struct {
			prefix string
			metric Metric
		}{
			{"rate-USD-i", MetricRateUSD},
			{"rate-count-i", MetricRateCount},
			{"avg-USD-i", MetricAvgUSD},
		} {
			for l := 0; l < depth-1; l++ {
				cols = append(cols, Column{Name: fmt.Sprintf("%s%s_%d%d", m.prefix, s, l, l+1), Side: side, Position: l, Metric: m.metric})
			}
		}
	}
	return cols
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i := range cols {
		names[i] = cols[i].Name
	}
	return names
}

// Flatten maps a record onto the schema columns.
func Flatten(rec *domain.DirectPoolRecord, cols []Column) []*float64 {
	out := make([]*float64, len(cols))
	for i := range cols {
		out[i] = lookupMetric(rec, cols[i])
	}
	return out
}

func lookupMetric(rec *domain.DirectPoolRecord, col Column) *float64 {
	stats := rec.Same
	if col.Side == domain.SideOther {
		stats = rec.Other
	}
	if col.Position >= len(stats) {
		return nil
	}
	st := &stats[col.Position]
	switch col.Metric {
	case MetricBlockTime:
		return st.BlockTime
	case MetricSize:
		return st.Size
	case MetricWidth:
		return st.Width
	case MetricVolatility:
		return st.Volatility
	case MetricRateUSD:
		return st.RateUSD
	case MetricRateCount:
		return st.RateCount
	case MetricAvgUSD:
		return st.AvgUSD
	}
	return nil
}

// ValidateColumns fails when actual differs from expected. The error lists
// the symmetric difference, or the first misplaced column when only order differs.
func ValidateColumns(expected, actual []string) error {
	missing, extra := SymmetricDiff(expected, actual)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("%w: missing [%s], unexpected [%s]",
			ErrSchemaViolation, strings.Join(missing, ", "), strings.Join(extra, ", "))
	}
	if len(expected) != len(actual) {
		return fmt.Errorf("%w: %d columns, want %d", ErrSchemaViolation, len(actual), len(expected))
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaViolation, i, actual[i], expected[i])
		}
	}
	return nil
}

// SymmetricDiff returns names in expected but not actual, and in actual but not expected.
func SymmetricDiff(expected, actual []string) (missing, extra []string) {
	exp := make(map[string]struct{}, len(expected))
	for _, c := range expected {
		exp[c] = struct{}{}
	}
	act := make(map[string]struct{}, len(actual))
	for _, c := range actual {
		act[c] = struct{}{}
		if _, ok := exp[c]; !ok {
			extra = append(extra, c)
		}
	}
	for _, c := range expected {
		if _, ok := act[c]; !ok {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}
