package domain

import "math"

// CushionFlag classifies supply cushion tightness.
type CushionFlag string

const (
	CushionTight       CushionFlag = "tight"
	CushionWatch       CushionFlag = "watch"
	CushionComfortable CushionFlag = "comfortable"
	CushionUnknown     CushionFlag = "unknown"
)

// Cushion thresholds as a fraction of load.
const (
	TightThreshold = 0.06
	WatchThreshold = 0.12
)

// ClassifyCushion maps a cushion percent to its flag.
// Boundaries belong to the looser class: 0.06 is watch, 0.12 is comfortable.
// Missing, non-finite or non-positive percents are unknown.
func ClassifyCushion(percent *float64) CushionFlag {
	if percent == nil {
		return CushionUnknown
	}
	p := *percent
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return CushionUnknown
	}
	switch {
	case p < TightThreshold:
		return CushionTight
	case p < WatchThreshold:
		return CushionWatch
	default:
		return CushionComfortable
	}
}

// CushionPercent returns cushion / load, or nil when load is missing or not positive.
func CushionPercent(cushionMw, load *float64) *float64 {
	if cushionMw == nil || load == nil || *load <= 0 {
		return nil
	}
	p := *cushionMw / *load
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	return &p
}
