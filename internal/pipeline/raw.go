package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"power-market-lab/internal/config"
	"power-market-lab/internal/reports"
)

// Report keys of the raw texts a day is assembled from. Wind and solar share
// the short-term renewable parser but are tracked separately.
const (
	KeyActualForecast = reports.ReportActualForecast
	KeyCapability     = reports.ReportCapability
	KeySupplyDemand   = reports.ReportSupplyDemand
	KeyWind           = "wind"
	KeySolar          = "solar"
)

// Keys lists every report key in display order.
var Keys = []string{KeyActualForecast, KeyCapability, KeySupplyDemand, KeyWind, KeySolar}

// fileNames maps report keys to the file names used for offline input.
var fileNames = map[string]string{
	KeyActualForecast: "actual_forecast.csv",
	KeyCapability:     "capability.html",
	KeySupplyDemand:   "supply_demand.html",
	KeyWind:           "wind.csv",
	KeySolar:          "solar.csv",
}

// Source is one report to fetch.
type Source struct {
	Report string
	URL    string
}

// SourcesFromConfig lists the configured report URLs. Reports without a URL are omitted.
func SourcesFromConfig(cfg config.ReportsConfig) []Source {
	all := []Source{
		{Report: KeyActualForecast, URL: cfg.ActualForecastURL},
		{Report: KeyCapability, URL: cfg.CapabilityURL},
		{Report: KeySupplyDemand, URL: cfg.SupplyDemandURL},
		{Report: KeyWind, URL: cfg.WindURL},
		{Report: KeySolar, URL: cfg.SolarURL},
	}
	out := make([]Source, 0, len(all))
	for _, s := range all {
		if s.URL != "" {
			out = append(out, s)
		}
	}
	return out
}

// RawReports holds the fetched text of each report, or the error that
// prevented retrieving it. A key in neither map was not requested.
type RawReports struct {
	Texts  map[string]string
	Errors map[string]error
}

// NewRawReports creates an empty RawReports.
func NewRawReports() RawReports {
	return RawReports{
		Texts:  make(map[string]string),
		Errors: make(map[string]error),
	}
}

// Set records text for report.
func (r RawReports) Set(report, text string) {
	r.Texts[report] = text
}

// Fail records a retrieval error for report.
func (r RawReports) Fail(report string, err error) {
	r.Errors[report] = err
}

// ReadDir loads offline report files from dir. Missing files are recorded
// as failures like an unreachable URL.
func ReadDir(dir string) RawReports {
	raw := NewRawReports()
	for _, key := range Keys {
		path := filepath.Join(dir, fileNames[key])
		data, err := os.ReadFile(path)
		if err != nil {
			raw.Fail(key, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		raw.Set(key, string(data))
	}
	return raw
}

// FileName returns the offline file name for report.
func FileName(report string) string {
	return fileNames[report]
}
