// Package synthetic generates a deterministic, plausible market day used as the
// baseline that live report values are merged onto.
package synthetic

import (
	"math"
	"time"

	"power-market-lab/internal/domain"
)

const (
	baseLoadMw      = 9500.0
	loadAmplitudeMw = 1200.0
	loadNoiseMw     = 300.0
)

// peakHE carries the daily load peak; the trough falls twelve hours earlier.
const peakHE = 18.0

// Intertie paths and their base import levels (MW, negative = import).
var intertiePaths = []struct {
	path      string
	base      float64
	tightness float64
}{
	{path: "BC", base: -250, tightness: -450},
	{path: "MATL", base: -60, tightness: -240},
	{path: "SK", base: -25, tightness: -110},
}

// priceSteps is the decreasing price curve of cushion percent.
var priceSteps = []struct {
	below float64
	price float64
}{
	{below: 0.03, price: 450},
	{below: domain.TightThreshold, price: 180},
	{below: 0.09, price: 95},
	{below: domain.WatchThreshold, price: 60},
	{below: 0.20, price: 42},
}

const floorPrice = 28.0

// Generate returns 24 synthetic records (HE 1..24) for date. Output depends only
// on date and role.
func Generate(date time.Time, role domain.DayRole) []domain.HourlyRecord {
	day := domain.DateOf(date)
	s := newStream(day, role)

	records := make([]domain.HourlyRecord, 0, domain.MaxHE)
	for he := domain.MinHE; he <= domain.MaxHE; he++ {
		records = append(records, s.hour(day, he))
	}
	return records
}

func (s stream) hour(day time.Time, he int) domain.HourlyRecord {
	load := math.Round(baseLoadMw +
		loadAmplitudeMw*math.Cos(math.Pi*(float64(he)-peakHE)/12) +
		(s.at(seedLoad, he)-0.5)*loadNoiseMw)
	forecastLoad := math.Round(load * s.between(seedLoadForecast, he, 0.985, 1.015))

	windForecast := math.Round(s.between(seedWind, he, 600, 1600))
	windActual := math.Round(windForecast * s.between(seedWindActual, he, 0.8, 1.2))
	solarForecast := math.Round(solarCurve(he) * s.between(seedSolar, he, 0.7, 1.0))
	solarActual := math.Round(solarForecast * s.between(seedSolarActual, he, 0.8, 1.2))

	margin := s.between(seedMargin, he, 1.02, 1.08)
	outage := math.Round(load * s.between(seedOutage, he, 0.04, 0.12))
	available := math.Round(load*margin - outage + windActual + solarActual)
	cushion := available - load

	rec := domain.HourlyRecord{
		Date:          day,
		HE:            he,
		ForecastLoad:  domain.Float(forecastLoad),
		ActualLoad:    domain.Float(load),
		CushionMw:     domain.Float(cushion),
		WindForecast:  domain.Float(windForecast),
		WindActual:    domain.Float(windActual),
		SolarForecast: domain.Float(solarForecast),
		SolarActual:   domain.Float(solarActual),
		Provenance:    domain.ProvenanceSynthetic,
	}
	rec.RecomputeCushion()

	step := stepPrice(rec.CushionPercent)
	actual := round2(step * s.between(seedPrice, he, 0.9, 1.1))
	rec.ActualPrice = domain.Float(actual)
	rec.ForecastPrice = domain.Float(round2(step * s.between(seedPriceFcst, he, 0.85, 1.15)))
	rec.SystemMarginalPrice = domain.Float(round2(actual * s.between(seedSMP, he, 0.95, 1.05)))

	tight := tightness(rec.CushionPercent)
	for i, p := range intertiePaths {
		scheduled := math.Round(p.base + p.tightness*tight + (s.at(seedIntertie+float64(i), he)-0.5)*100)
		actualFlow := math.Round(scheduled + (s.at(seedIntertie+float64(i)+10, he)-0.5)*40)
		rec.Interties = append(rec.Interties, domain.IntertieSnapshot{
			Path:        p.path,
			ScheduledMw: scheduled,
			ActualMw:    actualFlow,
		})
	}

	rec.CapabilityByFuel = s.capability(available, outage, he)
	return rec
}

// solarCurve is a daylight bell between HE 8 and HE 17.
func solarCurve(he int) float64 {
	if he < 8 || he > 17 {
		return 0
	}
	return 900 * math.Sin(math.Pi*(float64(he)-7)/11)
}

func stepPrice(percent *float64) float64 {
	if percent == nil {
		return priceSteps[0].price
	}
	for _, st := range priceSteps {
		if *percent < st.below {
			return st.price
		}
	}
	return floorPrice
}

// tightness is 0 at or above the watch threshold and 1 at zero cushion.
func tightness(percent *float64) float64 {
	if percent == nil {
		return 1
	}
	t := (domain.WatchThreshold - *percent) / domain.WatchThreshold
	return math.Max(0, math.Min(1, t))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
