// Package pipeline assembles one market day from raw report texts: parse,
// generate the synthetic baseline, merge live rows and attach the reference day.
package pipeline

import (
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/idhash"
	"power-market-lab/internal/reconcile"
	"power-market-lab/internal/reports"
	"power-market-lab/internal/synthetic"
)

// Reference sources.
const (
	ReferenceHistorical = "historical"
	ReferenceSynthetic  = "synthetic"
)

// Options controls Assemble.
type Options struct {
	NullPolicy          reconcile.NullPolicy
	CapabilityMarker    string
	CapabilityLookahead int
	SupplyLabels        []string
	// MarketLocation is the zone hour endings are counted in. Nil means UTC.
	MarketLocation *time.Location
	// SourceLocation is the zone of short-term renewable timestamps. Nil means MarketLocation.
	SourceLocation *time.Location
	// CurrentHE selects the hour the supply/demand snapshot and the
	// current-hour capability view apply to. Zero disables both.
	CurrentHE int
	// Now stamps GeneratedAt. Nil means time.Now.
	Now func() time.Time
}

// Reference is the comparison day attached to the records.
type Reference struct {
	Source  string                `json:"source"`
	Records []domain.HourlyRecord `json:"-"`
	NetFlow map[int]float64       `json:"net_flow_by_he,omitempty"`
}

// SyntheticReference builds the fallback reference from the reference-role generator.
func SyntheticReference(date time.Time) Reference {
	records := synthetic.Generate(date, domain.DayRoleReference)
	flows := make(map[int]float64, len(records))
	for _, r := range records {
		if v := r.NetInterchange(); v != nil {
			flows[r.HE] = *v
		}
	}
	return Reference{Source: ReferenceSynthetic, Records: records, NetFlow: flows}
}

// CapabilityView is the capability-by-fuel summary for one date.
type CapabilityView struct {
	Date         time.Time                  `json:"date"`
	Requested    bool                       `json:"requested"`
	HE           int                        `json:"he,omitempty"`
	Current      []reports.FuelAvailability `json:"current,omitempty"`
	DailyAverage []reports.FuelAvailability `json:"daily_average"`
	Dates        []time.Time                `json:"dates"`
}

// DayView is everything known about one market day.
type DayView struct {
	Date          time.Time                   `json:"date"`
	Records       []domain.HourlyRecord       `json:"records"`
	Capability    *CapabilityView             `json:"capability,omitempty"`
	Interchange   reports.InterchangeSnapshot `json:"interchange"`
	CurrentHE     int                         `json:"current_he,omitempty"`
	Reference     Reference                   `json:"reference"`
	Debug         map[string]reports.Debug    `json:"debug"`
	LiveHours     int                         `json:"live_hours"`
	SnapshotID    string                      `json:"snapshot_id"`
	SourceDigests map[string]string           `json:"source_digests,omitempty"`
	GeneratedAt   time.Time                   `json:"generated_at"`
}

// Record returns the record for he, if present.
func (v *DayView) Record(he int) (domain.HourlyRecord, bool) {
	for _, r := range v.Records {
		if r.HE == he {
			return r, true
		}
	}
	return domain.HourlyRecord{}, false
}

// DebugList returns the debug entries in report order.
func (v *DayView) DebugList() []reports.Debug {
	out := make([]reports.Debug, 0, len(v.Debug))
	for _, key := range append(append([]string(nil), Keys...), reports.ReportReference) {
		if d, ok := v.Debug[key]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Assemble builds the day view for date from already retrieved report texts.
// It never fails: unusable input reduces to synthetic hours and debug entries.
func Assemble(date time.Time, raw RawReports, ref Reference, opts Options) *DayView {
	date = domain.DateOf(date)
	market := opts.MarketLocation
	if market == nil {
		market = time.UTC
	}
	source := opts.SourceLocation
	if source == nil {
		source = market
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	view := &DayView{
		Date:          date,
		CurrentHE:     opts.CurrentHE,
		Debug:         make(map[string]reports.Debug),
		SourceDigests: make(map[string]string),
	}
	for key, text := range raw.Texts {
		view.SourceDigests[key] = idhash.ComputeSourceDigest(key, text)
	}

	var sets []domain.LiveSet

	if text, ok := textFor(view, raw, KeyActualForecast); ok {
		rows, d := reports.ParseActualForecast(text, reports.ActualForecastOptions{TargetDate: date})
		view.Debug[KeyActualForecast] = d
		sets = append(sets, reconcile.FromActualForecast(rows))
	}

	renewables := []struct {
		key              string
		actual, forecast domain.Field
	}{
		{KeyWind, domain.FieldWindActual, domain.FieldWindForecast},
		{KeySolar, domain.FieldSolarActual, domain.FieldSolarForecast},
	}
	for _, r := range renewables {
		text, ok := textFor(view, raw, r.key)
		if !ok {
			continue
		}
		hours, d := reports.ParseShortTermRenewable(text, reports.RenewableOptions{
			TargetDate:     date,
			SourceLocation: source,
			MarketLocation: market,
		})
		d.Report = r.key
		view.Debug[r.key] = d
		sets = append(sets, reconcile.FromRenewables(hours, r.actual, r.forecast))
	}

	if text, ok := textFor(view, raw, KeySupplyDemand); ok {
		labels := opts.SupplyLabels
		if len(labels) == 0 {
			labels = reports.DefaultSupplyDemandLabels
		}
		snap, d := reports.ParseSupplyDemand(text, labels)
		view.Debug[KeySupplyDemand] = d
		view.Interchange = snap
		if opts.CurrentHE > 0 {
			sets = append(sets, reconcile.FromInterchange(opts.CurrentHE, snap))
		}
	}

	if text, ok := textFor(view, raw, KeyCapability); ok {
		marker := opts.CapabilityMarker
		if marker == "" {
			marker = reports.DefaultCapabilityMarker
		}
		cells, d := reports.ParseCapability(text, reports.CapabilityOptions{
			Marker:    marker,
			Lookahead: opts.CapabilityLookahead,
		})
		view.Debug[KeyCapability] = d
		view.Capability = capabilityView(cells, date, opts.CurrentHE)
	}

	records := synthetic.Generate(date, domain.DayRolePrimary)
	if live := reconcile.Combine(sets...); len(live) > 0 {
		records = reconcile.Merge(records, live, opts.NullPolicy)
	}

	view.Reference = ref
	if len(ref.Records) > 0 {
		records = reconcile.AttachReference(records, ref.Records)
	}
	view.Debug[reports.ReportReference] = referenceDebug(ref)

	view.Records = records
	view.LiveHours = reconcile.LiveAugmentedHours(records)
	view.SnapshotID = idhash.ComputeSnapshotID(date, records)
	view.GeneratedAt = now().UTC()
	return view
}

// textFor returns the raw text for key, recording a fetch failure in the view
// when the report could not be retrieved.
func textFor(view *DayView, raw RawReports, key string) (string, bool) {
	if err, failed := raw.Errors[key]; failed {
		view.Debug[key] = reports.FetchFailed(key, err)
		return "", false
	}
	text, ok := raw.Texts[key]
	return text, ok
}

func capabilityView(cells []reports.CapabilityCell, date time.Time, he int) *CapabilityView {
	chosen, ok := reports.SelectDate(cells, date)
	if !ok {
		return nil
	}
	cv := &CapabilityView{
		Date:         chosen,
		Requested:    domain.SameDate(chosen, date),
		DailyAverage: reports.DailyAverage(cells, chosen),
		Dates:        reports.CapabilityDates(cells),
	}
	if domain.ValidHE(he) {
		cv.HE = he
		cv.Current = reports.CurrentHour(cells, chosen, he)
	}
	return cv
}

func referenceDebug(ref Reference) reports.Debug {
	d := reports.NewDebug(reports.ReportReference)
	d.Rows = len(ref.Records)
	if ref.Source != "" {
		d.Note("source: " + ref.Source)
	}
	if len(ref.Records) > 0 {
		d.AddDate(ref.Records[0].Date)
	}
	d.Finish(len(ref.Records), "no reference hours")
	return d
}
