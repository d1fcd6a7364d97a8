package reconcile

import "power-market-lab/internal/domain"

// AttachReference copies the reference day's actual price and load onto the
// matching HEs of a copy of records. HEs absent from reference are cleared.
func AttachReference(records, reference []domain.HourlyRecord) []domain.HourlyRecord {
	byHE := make(map[int]domain.HourlyRecord, len(reference))
	for _, r := range reference {
		byHE[r.HE] = r
	}

	out := cloneAll(records)
	for i := range out {
		ref, ok := byHE[out[i].HE]
		if !ok {
			out[i].ReferencePrice = nil
			out[i].ReferenceLoad = nil
			continue
		}
		out[i].ReferencePrice = copyFloat(ref.ActualPrice)
		out[i].ReferenceLoad = copyFloat(ref.ActualLoad)
	}
	return out
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return domain.Float(*p)
}
