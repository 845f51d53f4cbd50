package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Feature Dataset Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Span: %s | Pools: %s | Chain depth: %d | Horizon step: %d\n\n",
		r.Span, strings.Join(r.Pools, ", "), r.ChainDepth, r.HorizonStep))

	sb.WriteString("## Variants\n\n")
	if len(r.Variants) > 0 {
		sb.WriteString(VariantTable(r.Variants).RenderMarkdown())
		sb.WriteString("\n")
	} else {
		sb.WriteString("No variants built.\n")
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if r.DataQuality != nil {
		sb.WriteString(QualityTable(r.DataQuality.Checks).RenderMarkdown())
		sb.WriteString("\n\n")
		if r.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Review before modelling.\n\n")
		}
		if len(r.DataQuality.IntegrityErrors) > 0 {
			sb.WriteString("### Integrity Errors\n\n")
			for _, e := range r.DataQuality.IntegrityErrors {
				sb.WriteString(fmt.Sprintf("- %s\n", e))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No data quality checks performed.\n\n")
	}

	sb.WriteString("## Data Loss\n\n")
	if len(r.Losses) > 0 {
		sb.WriteString(LossTable(r.Losses).RenderMarkdown())
		sb.WriteString("\n")
	} else {
		sb.WriteString("No loss reports.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Missing Values\n\n")
	if len(r.Missing) > 0 {
		sb.WriteString(MissingTable(r.Missing).RenderMarkdown())
		sb.WriteString("\n")
	} else {
		sb.WriteString("No missing values.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Column Summary\n\n")
	if len(r.Columns) > 0 {
		sb.WriteString(SummaryTable(r.Columns).RenderMarkdown())
		sb.WriteString("\n")
	} else {
		sb.WriteString("No populated columns.\n")
	}
	sb.WriteString("\n")

	if len(r.Files) > 0 {
		sb.WriteString("## Files\n\n")
		for _, f := range r.Files {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
