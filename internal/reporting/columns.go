package reporting

import (
	"strconv"

	"power-market-lab/internal/domain"
)

// hourlyColumn is one numeric column of the hourly table.
type hourlyColumn struct {
	Name     string
	Decimals int
	Value    func(r domain.HourlyRecord) *float64
}

// hourlyColumns lists the numeric hourly columns in output order.
var hourlyColumns = []hourlyColumn{
	{"forecast_price", 2, func(r domain.HourlyRecord) *float64 { return r.ForecastPrice }},
	{"actual_price", 2, func(r domain.HourlyRecord) *float64 { return r.ActualPrice }},
	{"system_marginal_price", 2, func(r domain.HourlyRecord) *float64 { return r.SystemMarginalPrice }},
	{"price_delta", 2, domain.HourlyRecord.PriceDelta},
	{"forecast_load", 0, func(r domain.HourlyRecord) *float64 { return r.ForecastLoad }},
	{"actual_load", 0, func(r domain.HourlyRecord) *float64 { return r.ActualLoad }},
	{"load_delta", 0, domain.HourlyRecord.LoadDelta},
	{"reference_price", 2, func(r domain.HourlyRecord) *float64 { return r.ReferencePrice }},
	{"reference_load", 0, func(r domain.HourlyRecord) *float64 { return r.ReferenceLoad }},
	{"reference_price_delta", 2, domain.HourlyRecord.ReferencePriceDelta},
	{"reference_load_delta", 0, domain.HourlyRecord.ReferenceLoadDelta},
	{"cushion_mw", 0, func(r domain.HourlyRecord) *float64 { return r.CushionMw }},
	{"cushion_pct", 4, func(r domain.HourlyRecord) *float64 { return r.CushionPercent }},
	{"wind_forecast", 0, func(r domain.HourlyRecord) *float64 { return r.WindForecast }},
	{"wind_actual", 0, func(r domain.HourlyRecord) *float64 { return r.WindActual }},
	{"solar_forecast", 0, func(r domain.HourlyRecord) *float64 { return r.SolarForecast }},
	{"solar_actual", 0, func(r domain.HourlyRecord) *float64 { return r.SolarActual }},
	{"net_interchange", 0, domain.HourlyRecord.NetInterchange},
}

// formatValue renders v with the column's precision, or absent for nil.
func formatValue(v *float64, decimals int, absent string) string {
	if v == nil {
		return absent
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
