package domain

import "time"

// ReferenceHour is one hour of the static historical reference data.
// Flow maps are keyed by path name; blank cells are stored as zero.
type ReferenceHour struct {
	Date    time.Time          `json:"date"`
	HE      int                `json:"he"`
	Load    *float64           `json:"load"`
	Price   *float64           `json:"price"`
	Exports map[string]float64 `json:"exports"`
	Imports map[string]float64 `json:"imports"`
}

// Clone returns a deep copy of the hour.
func (h *ReferenceHour) Clone() *ReferenceHour {
	c := *h
	c.Load = copyFloat(h.Load)
	c.Price = copyFloat(h.Price)
	c.Exports = copyFlows(h.Exports)
	c.Imports = copyFlows(h.Imports)
	return &c
}

// Record returns the hour as a reference-role HourlyRecord carrying its
// price and load as actual values.
func (h *ReferenceHour) Record() HourlyRecord {
	return HourlyRecord{
		Date:        h.Date,
		HE:          h.HE,
		ActualPrice: copyFloat(h.Price),
		ActualLoad:  copyFloat(h.Load),
		CushionFlag: CushionUnknown,
	}
}

// NetFlow returns exports summed minus imports summed.
func (h *ReferenceHour) NetFlow() float64 {
	var net float64
	for _, v := range h.Exports {
		net += v
	}
	for _, v := range h.Imports {
		net -= v
	}
	return net
}

func copyFlows(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
