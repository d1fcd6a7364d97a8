package reconcile

import (
	"power-market-lab/internal/domain"
	"power-market-lab/internal/reports"
)

// FromActualForecast projects actual/forecast rows onto live hours. The four
// price and load columns are always covered, so a blank cell is an explicit
// empty. The system marginal price is covered only when present.
func FromActualForecast(rows map[int]*reports.ActualForecastRow) domain.LiveSet {
	set := make(domain.LiveSet)
	for he, row := range rows {
		if row == nil || !domain.ValidHE(he) {
			continue
		}
		lh := domain.NewLiveHour(he)
		lh.Set(domain.FieldForecastPrice, row.ForecastPrice)
		lh.Set(domain.FieldActualPrice, row.ActualPrice)
		lh.Set(domain.FieldForecastLoad, row.ForecastLoad)
		lh.Set(domain.FieldActualLoad, row.ActualLoad)
		if row.SystemMarginalPrice != nil {
			lh.Set(domain.FieldSystemMarginalPrice, row.SystemMarginalPrice)
		}
		set[he] = lh
	}
	return set
}

// FromRenewables projects averaged renewable buckets onto the given actual and
// forecast fields. Only values present in the bucket are covered.
func FromRenewables(hours map[int]*reports.RenewableHour, actual, forecast domain.Field) domain.LiveSet {
	set := make(domain.LiveSet)
	for he, h := range hours {
		if h == nil || !domain.ValidHE(he) {
			continue
		}
		lh := domain.NewLiveHour(he)
		if h.Actual != nil {
			lh.Set(actual, h.Actual)
		}
		if h.Forecast != nil {
			lh.Set(forecast, h.Forecast)
		}
		if !lh.Empty() {
			set[he] = lh
		}
	}
	return set
}

// FromInterchange projects a supply/demand snapshot onto he's intertie flows.
func FromInterchange(he int, snap reports.InterchangeSnapshot) domain.LiveSet {
	set := make(domain.LiveSet)
	if !domain.ValidHE(he) {
		return set
	}
	lh := domain.NewLiveHour(he)
	for label, path := range reports.IntertiePaths {
		if v, ok := snap.Value(label); ok {
			lh.SetIntertie(path, float64(v))
		}
	}
	if len(lh.Interties) > 0 {
		set[he] = lh
	}
	return set
}
