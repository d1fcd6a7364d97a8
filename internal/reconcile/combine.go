package reconcile

import "power-market-lab/internal/domain"

// Combine merges live sets into one. Earlier sets win per field and per
// intertie path; later sets only fill what earlier ones left uncovered.
// An explicit empty counts as covered.
func Combine(sets ...domain.LiveSet) domain.LiveSet {
	out := make(domain.LiveSet)
	for _, set := range sets {
		for he, lh := range set {
			if lh.Empty() || !domain.ValidHE(he) {
				continue
			}
			dst, ok := out[he]
			if !ok {
				dst = domain.NewLiveHour(he)
				out[he] = dst
			}
			for f, v := range lh.Values {
				if _, covered := dst.Values[f]; covered {
					continue
				}
				var cp *float64
				if v != nil {
					cp = domain.Float(*v)
				}
				dst.Set(f, cp)
			}
			for path, mw := range lh.Interties {
				if _, covered := dst.Interties[path]; covered {
					continue
				}
				dst.SetIntertie(path, mw)
			}
		}
	}
	return out
}
