package reports

import (
	"strings"

	"power-market-lab/internal/tolerant"
)

// Column is a logical column a report header can resolve to.
type Column string

const (
	ColForecastPrice Column = "forecast_price"
	ColActualPrice   Column = "actual_price"
	ColForecastLoad  Column = "forecast_load"
	ColActualLoad    Column = "actual_load"
	ColSMP           Column = "system_marginal_price"
	ColTimestamp     Column = "timestamp"
	ColActual        Column = "actual"
	ColMostLikely    Column = "most_likely"
)

// ColumnRule maps a lower-case header fragment to a column.
type ColumnRule struct {
	Fragment string
	Column   Column
}

// ColumnTable is an ordered list of rules; the first matching rule wins for a
// header cell, and the first header cell wins for a column. A cell that names
// the fragment exactly, optionally followed by a parenthesized qualifier such
// as "Date (MPT)", takes the column over an earlier substring match.
type ColumnTable []ColumnRule

// ActualForecastColumns resolves the actual/forecast CSV header.
var ActualForecastColumns = ColumnTable{
	{Fragment: "forecast pool price", Column: ColForecastPrice},
	{Fragment: "actual posted pool price", Column: ColActualPrice},
	{Fragment: "forecasted ail", Column: ColForecastLoad},
	{Fragment: "forecast ail", Column: ColForecastLoad},
	{Fragment: "forecast load", Column: ColForecastLoad},
	{Fragment: "actual ail", Column: ColActualLoad},
	{Fragment: "actual load", Column: ColActualLoad},
	{Fragment: "system marginal price", Column: ColSMP},
}

// RenewableColumns resolves the short-term renewable CSV header.
var RenewableColumns = ColumnTable{
	{Fragment: "most likely", Column: ColMostLikely},
	{Fragment: "actual", Column: ColActual},
	{Fragment: "date", Column: ColTimestamp},
	{Fragment: "time", Column: ColTimestamp},
}

// Resolve maps columns to header indexes.
func (t ColumnTable) Resolve(header []string) map[Column]int {
	out := make(map[Column]int)
	exact := make(map[Column]bool)
	for i, cell := range header {
		name := strings.ToLower(tolerant.StripQuotes(cell))
		if name == "" {
			continue
		}
		for _, rule := range t {
			if !strings.Contains(name, rule.Fragment) {
				continue
			}
			isExact := exactHeader(name, rule.Fragment)
			if _, seen := out[rule.Column]; !seen || (isExact && !exact[rule.Column]) {
				out[rule.Column] = i
				exact[rule.Column] = isExact
			}
			break
		}
	}
	return out
}

// exactHeader reports whether name is fragment, optionally followed by a
// parenthesized qualifier.
func exactHeader(name, fragment string) bool {
	rest, ok := strings.CutPrefix(name, fragment)
	if !ok {
		return false
	}
	rest = strings.TrimSpace(rest)
	return rest == "" || (strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")"))
}
