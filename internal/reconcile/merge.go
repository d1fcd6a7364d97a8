// Package reconcile merges parsed live report values onto a synthetic baseline
// and keeps the derived cushion metrics consistent.
package reconcile

import (
	"sort"

	"power-market-lab/internal/domain"
)

// Merge overlays live values onto a copy of baseline.
//
// Non-nil live values overwrite; explicit empties follow policy. When the actual
// load changes, the cushion moves by the opposite amount and its percent and
// flag are recomputed. A record is marked live-augmented only when at least one
// field was written. baseline is never modified.
func Merge(baseline []domain.HourlyRecord, live domain.LiveSet, policy NullPolicy) []domain.HourlyRecord {
	out := cloneAll(baseline)
	if len(live) == 0 {
		return out
	}

	for i := range out {
		rec := &out[i]
		lh := live[rec.HE]
		if lh.Empty() {
			continue
		}
		if applyHour(rec, lh, policy) {
			rec.Provenance = domain.ProvenanceLiveAugmented
		}
	}
	return out
}

func applyHour(rec *domain.HourlyRecord, lh *domain.LiveHour, policy NullPolicy) bool {
	written := false
	oldLoad := rec.ActualLoad
	loadTouched := false

	for _, f := range domain.AllFields {
		v, present := lh.Values[f]
		if !present {
			continue
		}
		slot := rec.Slot(f)
		switch {
		case v != nil:
			*slot = domain.Float(*v)
		case policy.ModeFor(f) == NullBlank:
			*slot = nil
		default:
			continue
		}
		written = true
		if f == domain.FieldActualLoad {
			loadTouched = true
		}
	}

	if len(lh.Interties) > 0 {
		applyInterties(rec, lh.Interties)
		written = true
	}

	if loadTouched {
		adjustCushion(rec, oldLoad)
	}
	return written
}

// adjustCushion applies cushion_new = cushion_old - (load_new - load_old) and
// re-derives percent and flag from the new load.
func adjustCushion(rec *domain.HourlyRecord, oldLoad *float64) {
	if rec.CushionMw != nil && oldLoad != nil && rec.ActualLoad != nil {
		rec.CushionMw = domain.Float(*rec.CushionMw - (*rec.ActualLoad - *oldLoad))
	}
	rec.RecomputeCushion()
}

func applyInterties(rec *domain.HourlyRecord, flows map[string]float64) {
	paths := make([]string, 0, len(flows))
	for p := range flows {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		found := false
		for i := range rec.Interties {
			if rec.Interties[i].Path == p {
				rec.Interties[i].ActualMw = flows[p]
				found = true
				break
			}
		}
		if !found {
			rec.Interties = append(rec.Interties, domain.IntertieSnapshot{Path: p, ActualMw: flows[p]})
		}
	}
}

func cloneAll(records []domain.HourlyRecord) []domain.HourlyRecord {
	if records == nil {
		return nil
	}
	out := make([]domain.HourlyRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// LiveAugmentedHours counts records carrying live values.
func LiveAugmentedHours(records []domain.HourlyRecord) int {
	n := 0
	for _, r := range records {
		if r.Provenance == domain.ProvenanceLiveAugmented {
			n++
		}
	}
	return n
}
