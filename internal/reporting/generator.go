package reporting

import (
	"context"
	"fmt"
	"time"

	"dex-spillover-lab/internal/domain"
	"dex-spillover-lab/internal/storage"
)

// Generator produces reports from stored horizon and feature tables.
type Generator struct {
	horizonStore storage.HorizonStore
	featureStore storage.FeatureStore
	now          func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(horizonStore storage.HorizonStore, featureStore storage.FeatureStore) *Generator {
	return &Generator{
		horizonStore: horizonStore,
		featureStore: featureStore,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report of the given variants. Losses are carried as given.
func (g *Generator) Generate(ctx context.Context, variants []string, losses []domain.LossReport) (*Report, error) {
	report := &Report{
		GeneratedAt: g.now(),
		Losses:      losses,
	}

	for _, variant := range variants {
		horizons, err := g.horizonStore.GetByVariant(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("load horizons of %s: %w", variant, err)
		}
		rows, err := g.featureStore.GetByVariant(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("load features of %s: %w", variant, err)
		}

		report.Variants = append(report.Variants, VariantSummary{
			Variant:     variant,
			HorizonRows: len(horizons),
			References:  countReferences(horizons),
			FeatureRows: len(rows),
		})
		report.Missing = append(report.Missing, missingRows(variant, rows)...)
		report.Columns = append(report.Columns, summarize(variant, rows)...)
	}

	return report, nil
}

func countReferences(rows []*domain.HorizonRow) int {
	refs := make(map[int64]struct{})
	for _, r := range rows {
		if r.HasReference() {
			refs[r.ReferenceBlock] = struct{}{}
		}
	}
	return len(refs)
}

// missingRows returns the census of one variant in column order.
func missingRows(variant string, rows []*domain.FeatureRow) []MissingRow {
	if len(rows) == 0 {
		return nil
	}

	columns := rows[0].Columns
	counts := make([]int, len(columns))
	for _, r := range rows {
		for i := range columns {
			if i < len(r.Values) && r.Values[i] == nil {
				counts[i]++
			}
		}
	}

	var out []MissingRow
	for i, c := range columns {
		if counts[i] == 0 {
			continue
		}
		out = append(out, MissingRow{Variant: variant, Column: c, Missing: counts[i], Total: len(rows)})
	}
	return out
}
