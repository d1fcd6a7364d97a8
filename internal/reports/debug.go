// Package reports parses the grid operator's published market reports into
// hourly rows. Parsers never fail: problems are reported through Debug.
package reports

import (
	"fmt"
	"sort"
	"time"

	"power-market-lab/internal/domain"
)

// Report names used in Debug and by the pipeline.
const (
	ReportActualForecast = "actual_forecast"
	ReportCapability     = "capability"
	ReportSupplyDemand   = "supply_demand"
	ReportShortTerm      = "short_term_renewable"
	ReportReference      = "reference"
)

// Status summarizes the outcome of one parse.
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusError       Status = "error"
	StatusFetchFailed Status = "fetch_failed"
)

const (
	maxSamples = 3
	maxNotes   = 8
)

// Debug describes what a parser saw and kept.
type Debug struct {
	Report  string   `json:"report"`
	Status  Status   `json:"status"`
	Reason  string   `json:"reason,omitempty"`
	Lines   int      `json:"lines"`
	Rows    int      `json:"rows"`
	Cells   int      `json:"cells"`
	Parsed  int      `json:"parsed"`
	Skipped int      `json:"skipped"`
	Dates   []string `json:"dates,omitempty"`
	Fuels   []string `json:"fuels,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Samples []string `json:"samples,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}

// NewDebug starts an empty debug entry for report.
func NewDebug(report string) Debug {
	return Debug{Report: report, Status: StatusEmpty}
}

// FetchFailed builds the debug entry for a report whose text could not be retrieved.
func FetchFailed(report string, err error) Debug {
	d := NewDebug(report)
	d.Status = StatusFetchFailed
	if err != nil {
		d.Reason = err.Error()
	} else {
		d.Reason = "fetch failed"
	}
	return d
}

// Skip counts a dropped row and notes why.
func (d *Debug) Skip(reason string) {
	d.Skipped++
	d.Note(reason)
}

// Note records a distinct message, keeping at most a handful.
func (d *Debug) Note(msg string) {
	if len(d.Notes) >= maxNotes {
		return
	}
	for _, n := range d.Notes {
		if n == msg {
			return
		}
	}
	d.Notes = append(d.Notes, msg)
}

// Sample keeps the first few extracted values.
func (d *Debug) Sample(format string, args ...any) {
	if len(d.Samples) >= maxSamples {
		return
	}
	d.Samples = append(d.Samples, fmt.Sprintf(format, args...))
}

// AddDate records a distinct date seen in the data.
func (d *Debug) AddDate(t time.Time) {
	s := t.Format(domain.DateLayout)
	for _, existing := range d.Dates {
		if existing == s {
			return
		}
	}
	d.Dates = append(d.Dates, s)
}

// AddFuel records a distinct fuel label.
func (d *Debug) AddFuel(fuel string) {
	for _, existing := range d.Fuels {
		if existing == fuel {
			return
		}
	}
	d.Fuels = append(d.Fuels, fuel)
}

// Finish sets the final status. A zero-row parse keeps reason, or a generic one.
func (d *Debug) Finish(parsed int, reason string) {
	d.Parsed = parsed
	sort.Strings(d.Dates)
	if parsed > 0 {
		d.Status = StatusOK
		return
	}
	d.Status = StatusEmpty
	if reason == "" {
		reason = "no rows parsed"
	}
	d.Reason = reason
}
