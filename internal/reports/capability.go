package reports

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/tolerant"
)

// DefaultCapabilityMarker identifies the capability table and its header row.
const DefaultCapabilityMarker = "Hour Ending"

// CapabilityCell is one fuel's availability for one hour.
type CapabilityCell struct {
	Date            time.Time `json:"date"`
	HE              int       `json:"he"`
	Fuel            string    `json:"fuel"`
	AvailabilityPct float64   `json:"availability_pct"`
}

// CapabilityOptions controls ParseCapability.
type CapabilityOptions struct {
	Marker    string
	Lookahead int
}

var (
	dayMonthYearPattern = regexp.MustCompile(`^\d{1,2}-[A-Za-z]{3}-\d{2}$`)
	firstNumberPattern  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

type heColumn struct {
	col int
	he  int
}

// ParseCapability parses the seven-day capability-by-fuel HTML grid.
// Each data row holds a date cell followed by one value per HE; the fuel
// label appears only on the first row of its group and carries forward.
func ParseCapability(html string, opts CapabilityOptions) ([]CapabilityCell, Debug) {
	debug := NewDebug(ReportCapability)
	if opts.Marker == "" {
		opts.Marker = DefaultCapabilityMarker
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = tolerant.DefaultHeaderLookahead
	}

	grid, matched := tolerant.Table(html, opts.Marker)
	debug.Lines = len(grid)
	if len(grid) == 0 {
		debug.Finish(0, "no table found")
		return nil, debug
	}
	if !matched {
		debug.Note("marker not found; using first table")
	}

	header, ok := tolerant.FindHourHeader(grid, opts.Marker, opts.Lookahead)
	if !ok {
		debug.Finish(0, "no hour-ending header row")
		return nil, debug
	}

	columns := make([]heColumn, 0, len(header.Columns))
	for col, he := range header.Columns {
		columns = append(columns, heColumn{col: col, he: he})
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].he < columns[j].he })
	first := header.FirstColumn()

	var cells []CapabilityCell
	fuel := ""
	for r := header.Row + 1; r < len(grid); r++ {
		row := grid[r]
		debug.Rows++
		debug.Cells += len(row)

		dateIdx := -1
		for i, c := range row {
			if dayMonthYearPattern.MatchString(c) {
				dateIdx = i
				break
			}
		}
		if dateIdx < 0 {
			debug.Skip("row without date cell")
			continue
		}
		date, err := time.Parse("2-Jan-06", row[dateIdx])
		if err != nil {
			debug.Skip("unparsable date cell")
			continue
		}
		if dateIdx > 0 {
			if label := strings.TrimSpace(row[dateIdx-1]); label != "" && !dayMonthYearPattern.MatchString(label) {
				fuel = label
			}
		}
		if fuel == "" {
			debug.Skip("row before any fuel label")
			continue
		}

		added := 0
		for _, hc := range columns {
			v, ok := firstNumber(tolerant.Field(row, dateIdx+1+hc.col-first))
			if !ok {
				continue
			}
			cells = append(cells, CapabilityCell{Date: date, HE: hc.he, Fuel: fuel, AvailabilityPct: v})
			added++
		}
		if added == 0 {
			debug.Skip("row without values")
			continue
		}
		debug.AddDate(date)
		debug.AddFuel(fuel)
		debug.Sample("%s %s: %d hours", fuel, date.Format(domain.DateLayout), added)
	}

	debug.Finish(len(cells), "no capability values")
	return cells, debug
}

func firstNumber(cell string) (float64, bool) {
	m := firstNumberPattern.FindString(strings.ReplaceAll(cell, ",", ""))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FuelAvailability is an aggregated availability figure for one fuel.
type FuelAvailability struct {
	Fuel    string  `json:"fuel"`
	Percent float64 `json:"percent"`
	Hours   int     `json:"hours"`
}

// CapabilityDates returns the distinct dates present, ascending.
func CapabilityDates(cells []CapabilityCell) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, c := range cells {
		d := domain.DateOf(c.Date)
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SelectDate returns requested when cells cover it, otherwise the most recent
// date present. ok is false when there are no cells.
func SelectDate(cells []CapabilityCell, requested time.Time) (time.Time, bool) {
	dates := CapabilityDates(cells)
	if len(dates) == 0 {
		return time.Time{}, false
	}
	if !requested.IsZero() {
		for _, d := range dates {
			if domain.SameDate(d, requested) {
				return d, true
			}
		}
	}
	return dates[len(dates)-1], true
}

// CurrentHour returns each fuel's availability for date and he, in first
// appearance order.
func CurrentHour(cells []CapabilityCell, date time.Time, he int) []FuelAvailability {
	return aggregate(cells, func(c CapabilityCell) bool {
		return c.HE == he && domain.SameDate(c.Date, date)
	})
}

// DailyAverage returns each fuel's mean availability over the HEs present for
// date. Missing HEs are ignored.
func DailyAverage(cells []CapabilityCell, date time.Time) []FuelAvailability {
	return aggregate(cells, func(c CapabilityCell) bool {
		return domain.SameDate(c.Date, date)
	})
}

func aggregate(cells []CapabilityCell, keep func(CapabilityCell) bool) []FuelAvailability {
	index := make(map[string]int)
	var out []FuelAvailability
	for _, c := range cells {
		if !keep(c) {
			continue
		}
		i, ok := index[c.Fuel]
		if !ok {
			i = len(out)
			index[c.Fuel] = i
			out = append(out, FuelAvailability{Fuel: c.Fuel})
		}
		out[i].Percent += c.AvailabilityPct
		out[i].Hours++
	}
	for i := range out {
		out[i].Percent /= float64(out[i].Hours)
	}
	return out
}
