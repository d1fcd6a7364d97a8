package synthetic

import (
	"math"
	"time"

	"power-market-lab/internal/domain"
)

// Per-field seed constants. Each generated quantity draws from its own stream.
const (
	seedLoad         = 11.0
	seedLoadForecast = 17.0
	seedWind         = 23.0
	seedWindActual   = 29.0
	seedSolar        = 31.0
	seedSolarActual  = 37.0
	seedMargin       = 41.0
	seedOutage       = 43.0
	seedPrice        = 47.0
	seedPriceFcst    = 53.0
	seedSMP          = 59.0
	seedIntertie     = 61.0
	seedFuel         = 67.0
)

// roleOffset separates the reference day's streams from the primary day's.
func roleOffset(role domain.DayRole) float64 {
	if role == domain.DayRoleReference {
		return 503.0
	}
	return 0
}

// dayOrdinal folds a calendar date into a small seed component so the sine
// argument stays in a range with full float precision.
func dayOrdinal(date time.Time) float64 {
	y, m, d := date.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return float64(days % 3653)
}

// noise is a stateless hash-style generator returning a value in [0, 1).
func noise(seed float64, he int) float64 {
	x := math.Sin(seed*12.9898+float64(he)*78.233) * 43758.5453
	return x - math.Floor(x)
}

// stream binds a field seed to a date and role.
type stream struct {
	base float64
}

func newStream(date time.Time, role domain.DayRole) stream {
	return stream{base: dayOrdinal(date)*0.137 + roleOffset(role)}
}

func (s stream) at(field float64, he int) float64 {
	return noise(field+s.base, he)
}

// between maps a draw onto [lo, hi).
func (s stream) between(field float64, he int, lo, hi float64) float64 {
	return lo + (hi-lo)*s.at(field, he)
}
