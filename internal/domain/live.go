package domain

// Field identifies a live-overridable scalar of HourlyRecord.
type Field string

const (
	FieldForecastPrice       Field = "forecast_price"
	FieldActualPrice         Field = "actual_price"
	FieldSystemMarginalPrice Field = "system_marginal_price"
	FieldForecastLoad        Field = "forecast_load"
	FieldActualLoad          Field = "actual_load"
	FieldWindForecast        Field = "wind_forecast"
	FieldWindActual          Field = "wind_actual"
	FieldSolarForecast       Field = "solar_forecast"
	FieldSolarActual         Field = "solar_actual"
)

// AllFields lists every live-overridable field in merge order.
// Actual load comes last so cushion recomputation sees the final load.
var AllFields = []Field{
	FieldForecastPrice,
	FieldActualPrice,
	FieldSystemMarginalPrice,
	FieldForecastLoad,
	FieldWindForecast,
	FieldWindActual,
	FieldSolarForecast,
	FieldSolarActual,
	FieldActualLoad,
}

// IsValid checks if the field is known.
func (f Field) IsValid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// Slot returns a pointer to the record's storage for f, or nil for unknown fields.
func (r *HourlyRecord) Slot(f Field) **float64 {
	switch f {
	case FieldForecastPrice:
		return &r.ForecastPrice
	case FieldActualPrice:
		return &r.ActualPrice
	case FieldSystemMarginalPrice:
		return &r.SystemMarginalPrice
	case FieldForecastLoad:
		return &r.ForecastLoad
	case FieldActualLoad:
		return &r.ActualLoad
	case FieldWindForecast:
		return &r.WindForecast
	case FieldWindActual:
		return &r.WindActual
	case FieldSolarForecast:
		return &r.SolarForecast
	case FieldSolarActual:
		return &r.SolarActual
	}
	return nil
}

// LiveHour carries the live values parsed for one HE.
// A key with a nil value means the source explicitly reported the field empty;
// a missing key means the source does not cover the field.
type LiveHour struct {
	HE        int
	Values    map[Field]*float64
	Interties map[string]float64 // path -> actual MW
}

// NewLiveHour creates an empty LiveHour for he.
func NewLiveHour(he int) *LiveHour {
	return &LiveHour{HE: he, Values: make(map[Field]*float64)}
}

// Set records a value for f. A nil v is an explicit empty.
func (h *LiveHour) Set(f Field, v *float64) {
	if h.Values == nil {
		h.Values = make(map[Field]*float64)
	}
	h.Values[f] = v
}

// SetIntertie records an actual flow for path.
func (h *LiveHour) SetIntertie(path string, mw float64) {
	if h.Interties == nil {
		h.Interties = make(map[string]float64)
	}
	h.Interties[path] = mw
}

// Empty reports whether the hour carries nothing.
func (h *LiveHour) Empty() bool {
	return h == nil || (len(h.Values) == 0 && len(h.Interties) == 0)
}

// LiveSet is a set of live hours keyed by HE.
type LiveSet map[int]*LiveHour
