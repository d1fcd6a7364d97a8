// Package reference reads the historical reference data: hourly load, pool
// price and intertie flows for past dates.
package reference

import (
	"strconv"
	"strings"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/reports"
	"power-market-lab/internal/tolerant"
)

var dateLayouts = []string{
	domain.DateLayout,
	"01/02/2006",
	"1/2/2006",
	"2-Jan-06",
	"2006/01/02",
}

// header maps the recognized columns of a reference CSV.
type header struct {
	date, he, load, price int
	exports               map[int]string // column -> path
	imports               map[int]string
}

// ParseCSV parses the historical reference CSV. Columns are found by header
// name: date, he/hour ending, load/ail, price, and any *export* or *import*
// path columns. Blank flow cells count as zero; blank load and price are absent.
func ParseCSV(text string) ([]*domain.ReferenceHour, reports.Debug) {
	debug := reports.NewDebug(reports.ReportReference)

	lines := tolerant.Lines(text)
	debug.Lines = len(lines)
	if len(lines) == 0 {
		debug.Finish(0, "empty input")
		return nil, debug
	}

	var h *header
	var out []*domain.ReferenceHour
	for _, line := range lines {
		fields := tolerant.SplitLine(line)
		if h == nil {
			h = resolveHeader(fields)
			continue
		}

		debug.Rows++
		debug.Cells += len(fields)

		date, ok := parseDate(tolerant.Field(fields, h.date))
		if !ok {
			debug.Skip("unparsable date")
			continue
		}
		he, err := strconv.Atoi(tolerant.StripQuotes(tolerant.Field(fields, h.he)))
		if err != nil || !domain.ValidHE(he) {
			debug.Skip("hour ending out of range")
			continue
		}

		hour := &domain.ReferenceHour{
			Date:    date,
			HE:      he,
			Load:    numberAt(fields, h.load),
			Price:   numberAt(fields, h.price),
			Exports: flows(fields, h.exports),
			Imports: flows(fields, h.imports),
		}
		out = append(out, hour)
		debug.AddDate(date)
		debug.Sample("%s HE%02d net=%.0f", date.Format(domain.DateLayout), he, hour.NetFlow())
	}

	if h == nil || h.date < 0 || h.he < 0 {
		debug.Finish(0, "header missing date or hour ending column")
		return nil, debug
	}
	debug.Finish(len(out), "no reference rows")
	return out, debug
}

func resolveHeader(fields []string) *header {
	h := &header{date: -1, he: -1, load: -1, price: -1, exports: map[int]string{}, imports: map[int]string{}}
	for i, raw := range fields {
		name := strings.ToLower(tolerant.StripQuotes(raw))
		switch {
		case strings.Contains(name, "export"):
			h.exports[i] = pathName(name, "export")
		case strings.Contains(name, "import"):
			h.imports[i] = pathName(name, "import")
		case name == "he" || strings.Contains(name, "hour"):
			if h.he < 0 {
				h.he = i
			}
		case strings.Contains(name, "date"):
			if h.date < 0 {
				h.date = i
			}
		case strings.Contains(name, "load") || strings.Contains(name, "ail"):
			if h.load < 0 {
				h.load = i
			}
		case strings.Contains(name, "price"):
			if h.price < 0 {
				h.price = i
			}
		}
	}
	return h
}

// pathName strips the flow direction word from a header, leaving the path.
func pathName(name, direction string) string {
	r := strings.NewReplacer("_", " ", "-", " ", "(mw)", " ", "mw", " ")
	words := strings.Fields(r.Replace(name))
	var kept []string
	for _, w := range words {
		if strings.HasPrefix(w, direction) {
			continue
		}
		kept = append(kept, strings.ToUpper(w))
	}
	if len(kept) == 0 {
		return "TOTAL"
	}
	return strings.Join(kept, " ")
}

func parseDate(field string) (time.Time, bool) {
	s := tolerant.StripQuotes(field)
	if len(s) > 10 {
		// tolerate a trailing time component
		s = strings.Fields(s)[0]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func numberAt(fields []string, i int) *float64 {
	if i < 0 {
		return nil
	}
	return tolerant.NumberOrNull(tolerant.Field(fields, i))
}

func flows(fields []string, cols map[int]string) map[string]float64 {
	out := make(map[string]float64, len(cols))
	for i, path := range cols {
		var v float64
		if p := tolerant.NumberOrNull(tolerant.Field(fields, i)); p != nil {
			v = *p
		}
		out[path] += v
	}
	return out
}
