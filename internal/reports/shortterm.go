package reports

import (
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/tolerant"
)

// RenewableHour is the averaged actual and forecast output for one HE.
type RenewableHour struct {
	HE       int      `json:"he"`
	Actual   *float64 `json:"actual"`
	Forecast *float64 `json:"forecast"`
	Readings int      `json:"readings"`
}

// RenewableOptions controls ParseShortTermRenewable.
type RenewableOptions struct {
	// TargetDate is the market-local calendar date to keep. Zero selects the
	// date of the first readable row.
	TargetDate time.Time
	// SourceLocation is the zone the timestamps are written in. Nil means UTC.
	SourceLocation *time.Location
	// MarketLocation is the zone hours are bucketed in. Nil means UTC.
	MarketLocation *time.Location
}

var renewableLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

type bucket struct {
	actualSum, forecastSum float64
	actualN, forecastN     int
}

// ParseShortTermRenewable averages the sub-hourly wind or solar report into
// hour-ending buckets for the target date. Hour h maps to HE h+1.
func ParseShortTermRenewable(text string, opts RenewableOptions) (map[int]*RenewableHour, Debug) {
	debug := NewDebug(ReportShortTerm)
	out := make(map[int]*RenewableHour)

	src := opts.SourceLocation
	if src == nil {
		src = time.UTC
	}
	market := opts.MarketLocation
	if market == nil {
		market = time.UTC
	}

	lines := tolerant.Lines(text)
	debug.Lines = len(lines)
	if len(lines) == 0 {
		debug.Finish(0, "empty input")
		return out, debug
	}

	var columns map[Column]int
	target := opts.TargetDate
	buckets := make(map[int]*bucket)

	for _, line := range lines {
		fields := tolerant.SplitLine(line)
		if columns == nil {
			if len(fields) < 2 {
				continue
			}
			resolved := RenewableColumns.Resolve(fields)
			if _, ok := resolved[ColActual]; ok {
				if _, ok := resolved[ColTimestamp]; !ok {
					resolved[ColTimestamp] = 0
				}
				columns = resolved
			}
			continue
		}

		debug.Rows++
		debug.Cells += len(fields)
		ts, ok := parseRenewableTime(tolerant.Field(fields, columns[ColTimestamp]), src)
		if !ok {
			debug.Skip("unparsable timestamp")
			continue
		}
		local := ts.In(market)
		if target.IsZero() {
			target = local
			debug.Note("target date taken from first row")
		}
		if !domain.SameDate(local, target) {
			debug.Skip("outside target date")
			continue
		}

		he := local.Hour() + 1
		b := buckets[he]
		if b == nil {
			b = &bucket{}
			buckets[he] = b
		}
		if v := tolerant.NumberOrNull(tolerant.Field(fields, columns[ColActual])); v != nil {
			b.actualSum += *v
			b.actualN++
		}
		if i, ok := columns[ColMostLikely]; ok {
			if v := tolerant.NumberOrNull(tolerant.Field(fields, i)); v != nil {
				b.forecastSum += *v
				b.forecastN++
			}
		}
	}

	if columns == nil {
		debug.Finish(0, "no Actual column in header")
		return out, debug
	}

	for he, b := range buckets {
		if b.actualN == 0 && b.forecastN == 0 {
			continue
		}
		h := &RenewableHour{HE: he, Readings: max(b.actualN, b.forecastN)}
		if b.actualN > 0 {
			h.Actual = domain.Float(b.actualSum / float64(b.actualN))
		}
		if b.forecastN > 0 {
			h.Forecast = domain.Float(b.forecastSum / float64(b.forecastN))
		}
		out[he] = h
	}
	if len(out) > 0 {
		debug.AddDate(target)
		for he := domain.MinHE; he <= domain.MaxHE && len(debug.Samples) < maxSamples; he++ {
			if h, ok := out[he]; ok && h.Actual != nil {
				debug.Sample("HE%02d=%.1f", he, *h.Actual)
			}
		}
	}

	debug.Finish(len(out), "no readings for target date")
	return out, debug
}

func parseRenewableTime(field string, loc *time.Location) (time.Time, bool) {
	s := tolerant.StripQuotes(field)
	for _, layout := range renewableLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
