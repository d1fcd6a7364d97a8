package reports

import (
	"regexp"
	"strconv"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/tolerant"
)

// ActualForecastRow is one hour of the actual/forecast pool price and load report.
type ActualForecastRow struct {
	Date                time.Time `json:"date"`
	HE                  int       `json:"he"`
	ForecastPrice       *float64  `json:"forecast_price"`
	ActualPrice         *float64  `json:"actual_price"`
	ForecastLoad        *float64  `json:"forecast_load"`
	ActualLoad          *float64  `json:"actual_load"`
	SystemMarginalPrice *float64  `json:"system_marginal_price"`
}

// HasValues reports whether any numeric field is present.
func (r *ActualForecastRow) HasValues() bool {
	return r.ForecastPrice != nil || r.ActualPrice != nil || r.ForecastLoad != nil ||
		r.ActualLoad != nil || r.SystemMarginalPrice != nil
}

// ActualForecastOptions controls ParseActualForecast.
type ActualForecastOptions struct {
	// TargetDate keeps only rows for this calendar date. Zero keeps all rows.
	TargetDate time.Time
}

// "M/D/YYYY HH" with an optional "*" marking the repeated daylight-saving hour.
var timestampHEPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{1,2})\*?$`)

// positionalColumns is the layout after the timestamp. Columns the header does
// not name keep these positions unless the index is claimed by a named column.
var positionalColumns = map[Column]int{
	ColForecastPrice: 1,
	ColActualPrice:   2,
	ColForecastLoad:  3,
	ColActualLoad:    4,
}

// ParseActualForecast parses the actual/forecast CSV into rows keyed by HE.
// Duplicate HEs keep the first occurrence.
func ParseActualForecast(text string, opts ActualForecastOptions) (map[int]*ActualForecastRow, Debug) {
	debug := NewDebug(ReportActualForecast)
	rows := make(map[int]*ActualForecastRow)

	lines := tolerant.Lines(text)
	debug.Lines = len(lines)
	if len(lines) == 0 {
		debug.Finish(0, "empty input")
		return rows, debug
	}

	var columns map[Column]int
	for _, line := range lines {
		fields := tolerant.SplitLine(line)
		date, he, ok, valid := parseTimestampHE(tolerant.Field(fields, 0))
		if !ok {
			if columns == nil {
				if resolved := ActualForecastColumns.Resolve(fields); len(resolved) >= 2 {
					columns = withPositionalFallback(resolved)
					debug.Note("header resolved")
				}
			}
			continue
		}
		debug.Rows++
		debug.Cells += len(fields)
		if !valid {
			debug.Skip("hour ending out of range")
			continue
		}
		if !opts.TargetDate.IsZero() && !domain.SameDate(date, opts.TargetDate) {
			debug.Skip("outside target date")
			continue
		}
		if _, dup := rows[he]; dup {
			debug.Skip("duplicate hour ending")
			continue
		}

		cols := columns
		if cols == nil {
			cols = positionalColumns
		}
		row := &ActualForecastRow{
			Date:                date,
			HE:                  he,
			ForecastPrice:       columnValue(fields, cols, ColForecastPrice),
			ActualPrice:         columnValue(fields, cols, ColActualPrice),
			ForecastLoad:        columnValue(fields, cols, ColForecastLoad),
			ActualLoad:          columnValue(fields, cols, ColActualLoad),
			SystemMarginalPrice: columnValue(fields, cols, ColSMP),
		}
		if !row.HasValues() {
			debug.Skip("no values")
			continue
		}

		rows[he] = row
		debug.AddDate(date)
		debug.Sample("%s HE%02d", date.Format(domain.DateLayout), he)
	}

	if columns == nil {
		debug.Note("header not recognized; positional columns")
	}
	debug.Finish(len(rows), "no timestamped rows")
	return rows, debug
}

// withPositionalFallback lays resolved header indexes over positionalColumns.
func withPositionalFallback(resolved map[Column]int) map[Column]int {
	claimed := make(map[int]bool, len(resolved))
	out := make(map[Column]int, len(resolved)+len(positionalColumns))
	for col, i := range resolved {
		out[col] = i
		claimed[i] = true
	}
	for col, i := range positionalColumns {
		if _, named := out[col]; named || claimed[i] {
			continue
		}
		out[col] = i
	}
	return out
}

// parseTimestampHE reads "M/D/YYYY HH". ok reports a timestamp shape; valid
// additionally requires a real calendar date and an HE in [1, 24].
func parseTimestampHE(field string) (date time.Time, he int, ok, valid bool) {
	m := timestampHEPattern.FindStringSubmatch(tolerant.StripQuotes(field))
	if m == nil {
		return time.Time{}, 0, false, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	he, _ = strconv.Atoi(m[4])

	date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, 0, true, false
	}
	return date, he, true, domain.ValidHE(he)
}

func columnValue(fields []string, cols map[Column]int, col Column) *float64 {
	i, ok := cols[col]
	if !ok {
		return nil
	}
	return tolerant.NumberOrNull(tolerant.Field(fields, i))
}
