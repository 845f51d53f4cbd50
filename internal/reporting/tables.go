package reporting

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"dex-spillover-lab/internal/domain"
)

// LossTable builds the data-loss table.
func LossTable(losses []domain.LossReport) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Variant", "Stage", "Before", "After", "Lost", "Lost %"})
	for _, l := range losses {
		variant := l.Variant
		if variant == "" {
			variant = "-"
		}
		t.AppendRow(table.Row{variant, l.Stage, l.Before, l.After, l.Lost(), fmt.Sprintf("%.2f", l.Percent())})
	}
	return t
}

// MissingTable builds the missing-value census table.
func MissingTable(rows []MissingRow) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Variant", "Column", "Missing", "Rows", "Missing %"})
	for _, m := range rows {
		t.AppendRow(table.Row{m.Variant, m.Column, m.Missing, m.Total, fmt.Sprintf("%.2f", m.Percent())})
	}
	return t
}

// VariantTable builds the per-variant row count table.
func VariantTable(variants []VariantSummary) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Variant", "Horizon rows", "References", "Feature rows"})
	for _, v := range variants {
		t.AppendRow(table.Row{v.Variant, v.HorizonRows, v.References, v.FeatureRows})
	}
	return t
}

// SummaryTable builds the column distribution table.
func SummaryTable(summaries []ColumnSummary) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Variant", "Column", "N", "Mean", "Std", "Min", "P10", "Median", "P90", "Max"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Variant, s.Column, s.Count,
			fmt.Sprintf("%.6g", s.Mean), fmt.Sprintf("%.6g", s.Stddev),
			fmt.Sprintf("%.6g", s.Min), fmt.Sprintf("%.6g", s.P10), fmt.Sprintf("%.6g", s.Median),
			fmt.Sprintf("%.6g", s.P90), fmt.Sprintf("%.6g", s.Max),
		})
	}
	return t
}

// QualityTable builds the sufficiency check table.
func QualityTable(checks []SufficiencyCheck) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Check", "Threshold", "Actual", "Status"})
	for _, c := range checks {
		status := "FAIL"
		if c.Pass {
			status = "PASS"
		}
		t.AppendRow(table.Row{c.Name, c.Threshold, c.Actual, status})
	}
	return t
}

// RenderText renders the report tables for a terminal.
func RenderText(r *Report) string {
	out := VariantTable(r.Variants).Render() + "\n\n" + LossTable(r.Losses).Render() + "\n"
	if len(r.Missing) > 0 {
		out += "\n" + MissingTable(r.Missing).Render() + "\n"
	}
	if r.DataQuality != nil {
		out += "\n" + QualityTable(r.DataQuality.Checks).Render() + "\n"
	}
	return out
}
