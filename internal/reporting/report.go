package reporting

import (
	"time"

	"dex-spillover-lab/internal/domain"
)

// Report summarizes one dataset build.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Span        string
	Pools       []string
	ChainDepth  int
	HorizonStep int64

	// Per-variant row counts, in variant order
	Variants []VariantSummary

	// Data loss at every filter and join, in pipeline order
	Losses []domain.LossReport

	// Missing values per column, only columns with at least one missing value
	Missing []MissingRow

	// Distribution of every populated column, per variant
	Columns []ColumnSummary

	// Sufficiency checks, nil when not run
	DataQuality *DataQuality

	// Written feature files
	Files []string
}

// VariantSummary counts the rows of one reference variant.
type VariantSummary struct {
	Variant     string
	HorizonRows int
	References  int // distinct governing mints
	FeatureRows int
}

// MissingRow is one entry of the missing-value census.
type MissingRow struct {
	Variant string
	Column  string
	Missing int
	Total   int
}

// Percent returns the missing share, 0 for an empty variant.
func (m MissingRow) Percent() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Missing) / float64(m.Total) * 100
}
