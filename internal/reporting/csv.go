package reporting

import (
	"fmt"
	"strings"

	"power-market-lab/internal/domain"
)

// RenderCSV renders hourly records as CSV string. Absent values are empty cells.
func RenderCSV(records []domain.HourlyRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date,he")
	for _, c := range hourlyColumns {
		sb.WriteString(",")
		sb.WriteString(c.Name)
	}
	sb.WriteString(",cushion_flag,provenance\n")

	// Rows
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%d", r.Date.Format(domain.DateLayout), r.HE))
		for _, c := range hourlyColumns {
			sb.WriteString(",")
			sb.WriteString(formatValue(c.Value(r), c.Decimals, ""))
		}
		sb.WriteString(fmt.Sprintf(",%s,%s\n", r.CushionFlag, r.Provenance))
	}

	return sb.String()
}
