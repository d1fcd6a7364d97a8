package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/pipeline"
)

// markdownColumns are the hourly columns shown in the Markdown table.
var markdownColumns = []string{
	"forecast_price", "actual_price", "price_delta",
	"forecast_load", "actual_load", "reference_load",
	"cushion_mw", "cushion_pct", "wind_actual", "solar_actual", "net_interchange",
}

// RenderMarkdown renders a day view as Markdown string.
func RenderMarkdown(v *pipeline.DayView) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Market Day %s\n\n", v.Date.Format(domain.DateLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", v.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Snapshot: `%s`\n\n", v.SnapshotID))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Hours | %d |\n", len(v.Records)))
	sb.WriteString(fmt.Sprintf("| Live-augmented hours | %d |\n", v.LiveHours))
	sb.WriteString(fmt.Sprintf("| Reference | %s |\n", orDash(v.Reference.Source)))
	if v.CurrentHE > 0 {
		sb.WriteString(fmt.Sprintf("| Current HE | %d |\n", v.CurrentHE))
	}
	flags := countFlags(v.Records)
	for _, f := range []domain.CushionFlag{domain.CushionTight, domain.CushionWatch, domain.CushionComfortable, domain.CushionUnknown} {
		sb.WriteString(fmt.Sprintf("| Cushion %s | %d |\n", f, flags[f]))
	}
	sb.WriteString("\n")

	// Hourly
	sb.WriteString("## Hourly\n\n")
	cols := selectColumns(markdownColumns)
	sb.WriteString("| HE |")
	for _, c := range cols {
		sb.WriteString(" " + c.Name + " |")
	}
	sb.WriteString(" flag | provenance |\n")
	sb.WriteString("|----|")
	for range cols {
		sb.WriteString("------|")
	}
	sb.WriteString("------|------------|\n")
	for _, r := range v.Records {
		sb.WriteString(fmt.Sprintf("| %d |", r.HE))
		for _, c := range cols {
			sb.WriteString(" " + formatValue(c.Value(r), c.Decimals, "-") + " |")
		}
		sb.WriteString(fmt.Sprintf(" %s | %s |\n", r.CushionFlag, r.Provenance))
	}
	sb.WriteString("\n")

	// Capability
	sb.WriteString("## Capability by Fuel\n\n")
	if v.Capability != nil {
		note := ""
		if !v.Capability.Requested {
			note = " (requested date not in report)"
		}
		sb.WriteString(fmt.Sprintf("Date: %s%s\n\n", v.Capability.Date.Format(domain.DateLayout), note))
		current := make(map[string]float64, len(v.Capability.Current))
		for _, c := range v.Capability.Current {
			current[c.Fuel] = c.Percent
		}
		sb.WriteString("| Fuel | Daily Avg % | Hours | Current % |\n")
		sb.WriteString("|------|-------------|-------|-----------|\n")
		for _, fa := range v.Capability.DailyAverage {
			cur := "-"
			if p, ok := current[fa.Fuel]; ok {
				cur = fmt.Sprintf("%.1f", p)
			}
			sb.WriteString(fmt.Sprintf("| %s | %.1f | %d | %s |\n", fa.Fuel, fa.Percent, fa.Hours, cur))
		}
	} else {
		sb.WriteString("No capability data available.\n")
	}
	sb.WriteString("\n")

	// Interchange
	sb.WriteString("## Interchange\n\n")
	if len(v.Interchange.Values) > 0 {
		labels := make([]string, 0, len(v.Interchange.Values))
		for l := range v.Interchange.Values {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		sb.WriteString("| Label | MW |\n")
		sb.WriteString("|-------|----|\n")
		for _, l := range labels {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", l, v.Interchange.Values[l]))
		}
		if len(v.Interchange.Missing) > 0 {
			sb.WriteString(fmt.Sprintf("\nMissing: %s\n", strings.Join(v.Interchange.Missing, ", ")))
		}
	} else {
		sb.WriteString("No interchange snapshot available.\n")
	}
	sb.WriteString("\n")

	// Debug
	sb.WriteString("## Report Diagnostics\n\n")
	sb.WriteString("| Report | Status | Parsed | Skipped | Reason |\n")
	sb.WriteString("|--------|--------|--------|---------|--------|\n")
	for _, d := range v.DebugList() {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s |\n",
			d.Report, d.Status, d.Parsed, d.Skipped, orDash(d.Reason)))
	}

	return sb.String()
}

func selectColumns(names []string) []hourlyColumn {
	out := make([]hourlyColumn, 0, len(names))
	for _, n := range names {
		for _, c := range hourlyColumns {
			if c.Name == n {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func countFlags(records []domain.HourlyRecord) map[domain.CushionFlag]int {
	out := make(map[domain.CushionFlag]int)
	for _, r := range records {
		out[r.CushionFlag]++
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
