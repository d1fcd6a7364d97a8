package domain

import (
	"fmt"
	"time"
)

// DateLayout is the canonical ISO calendar date layout.
const DateLayout = "2006-01-02"

// Hour-ending domain bounds.
const (
	MinHE = 1
	MaxHE = 24
)

// ValidHE reports whether he lies in the closed range [1, 24].
func ValidHE(he int) bool {
	return he >= MinHE && he <= MaxHE
}

// Provenance records whether a record is purely synthetic or carries live fields.
type Provenance string

const (
	ProvenanceSynthetic     Provenance = "synthetic"
	ProvenanceLiveAugmented Provenance = "live-augmented"
)

// String returns the string representation of Provenance.
func (p Provenance) String() string {
	return string(p)
}

// DayRole selects which synthetic day a generator produces.
type DayRole string

const (
	DayRolePrimary   DayRole = "primary"
	DayRoleReference DayRole = "reference"
)

// IsValid checks if the role is a known value.
func (r DayRole) IsValid() bool {
	return r == DayRolePrimary || r == DayRoleReference
}

// IntertieSnapshot is one transmission path's flow for an hour.
// Positive values are exports.
type IntertieSnapshot struct {
	Path        string  `json:"path"`
	ScheduledMw float64 `json:"scheduled_mw"`
	ActualMw    float64 `json:"actual_mw"`
}

// FuelCapability is the available and outaged capability of one fuel type.
type FuelCapability struct {
	Fuel        string `json:"fuel"`
	AvailableMw int    `json:"available_mw"`
	OutageMw    int    `json:"outage_mw"`
}

// HourlyRecord is the canonical per-hour state for one calendar date.
// Nil numeric fields mean "no value"; zero is a real reading.
type HourlyRecord struct {
	Date time.Time `json:"date"`
	HE   int       `json:"he"`

	ForecastPrice       *float64 `json:"forecast_price"`
	ActualPrice         *float64 `json:"actual_price"`
	SystemMarginalPrice *float64 `json:"system_marginal_price"`
	ForecastLoad        *float64 `json:"forecast_load"`
	ActualLoad          *float64 `json:"actual_load"`

	ReferencePrice *float64 `json:"reference_price"`
	ReferenceLoad  *float64 `json:"reference_load"`

	CushionMw      *float64    `json:"cushion_mw"`
	CushionPercent *float64    `json:"cushion_percent"`
	CushionFlag    CushionFlag `json:"cushion_flag"`

	WindForecast  *float64 `json:"wind_forecast"`
	WindActual    *float64 `json:"wind_actual"`
	SolarForecast *float64 `json:"solar_forecast"`
	SolarActual   *float64 `json:"solar_actual"`

	Interties        []IntertieSnapshot `json:"interties"`
	CapabilityByFuel []FuelCapability   `json:"capability_by_fuel"`

	Provenance Provenance `json:"provenance"`
}

// Clone returns a deep copy of the record.
func (r HourlyRecord) Clone() HourlyRecord {
	c := r
	c.ForecastPrice = copyFloat(r.ForecastPrice)
	c.ActualPrice = copyFloat(r.ActualPrice)
	c.SystemMarginalPrice = copyFloat(r.SystemMarginalPrice)
	c.ForecastLoad = copyFloat(r.ForecastLoad)
	c.ActualLoad = copyFloat(r.ActualLoad)
	c.ReferencePrice = copyFloat(r.ReferencePrice)
	c.ReferenceLoad = copyFloat(r.ReferenceLoad)
	c.CushionMw = copyFloat(r.CushionMw)
	c.CushionPercent = copyFloat(r.CushionPercent)
	c.WindForecast = copyFloat(r.WindForecast)
	c.WindActual = copyFloat(r.WindActual)
	c.SolarForecast = copyFloat(r.SolarForecast)
	c.SolarActual = copyFloat(r.SolarActual)
	if r.Interties != nil {
		c.Interties = append([]IntertieSnapshot(nil), r.Interties...)
	}
	if r.CapabilityByFuel != nil {
		c.CapabilityByFuel = append([]FuelCapability(nil), r.CapabilityByFuel...)
	}
	return c
}

// PriceDelta returns actual minus forecast price.
func (r HourlyRecord) PriceDelta() *float64 {
	return diff(r.ActualPrice, r.ForecastPrice)
}

// LoadDelta returns actual minus forecast load.
func (r HourlyRecord) LoadDelta() *float64 {
	return diff(r.ActualLoad, r.ForecastLoad)
}

// ReferencePriceDelta returns actual price minus the reference-day price.
func (r HourlyRecord) ReferencePriceDelta() *float64 {
	return diff(r.ActualPrice, r.ReferencePrice)
}

// ReferenceLoadDelta returns actual load minus the reference-day load.
func (r HourlyRecord) ReferenceLoadDelta() *float64 {
	return diff(r.ActualLoad, r.ReferenceLoad)
}

// NetInterchange sums actual intertie flows (positive = net export).
// Returns nil when the record carries no intertie data.
func (r HourlyRecord) NetInterchange() *float64 {
	if len(r.Interties) == 0 {
		return nil
	}
	var sum float64
	for _, it := range r.Interties {
		sum += it.ActualMw
	}
	return &sum
}

// RecomputeCushion derives cushion percent and flag from CushionMw and ActualLoad.
func (r *HourlyRecord) RecomputeCushion() {
	r.CushionPercent = CushionPercent(r.CushionMw, r.ActualLoad)
	r.CushionFlag = ClassifyCushion(r.CushionPercent)
}

// DateOf truncates t to its calendar date, keeping t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses an ISO calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// SameDate reports whether a and b fall on the same calendar date
// in their own locations.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := *a - *b
	return &d
}
