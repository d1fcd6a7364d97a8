package reference

import (
	"context"
	"fmt"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/storage"
)

// Lookup answers reference questions for a date from a ReferenceStore.
type Lookup struct {
	store storage.ReferenceStore
}

// NewLookup creates a Lookup over store.
func NewLookup(store storage.ReferenceStore) *Lookup {
	return &Lookup{store: store}
}

// NetFlowByHE returns exports minus imports per HE for the exact date.
// Dates without reference data yield an empty map.
func (l *Lookup) NetFlowByHE(ctx context.Context, date time.Time) (map[int]float64, error) {
	hours, err := l.store.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("reference net flow %s: %w", date.Format(domain.DateLayout), err)
	}
	out := make(map[int]float64, len(hours))
	for _, h := range hours {
		out[h.HE] = h.NetFlow()
	}
	return out, nil
}

// Day returns the reference hours of date as records for reconcile.AttachReference.
// Returns storage.ErrNotFound when the store has no rows for date.
func (l *Lookup) Day(ctx context.Context, date time.Time) ([]domain.HourlyRecord, error) {
	hours, err := l.store.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("reference day %s: %w", date.Format(domain.DateLayout), err)
	}
	if len(hours) == 0 {
		return nil, storage.ErrNotFound
	}
	out := make([]domain.HourlyRecord, 0, len(hours))
	for _, h := range hours {
		out = append(out, h.Record())
	}
	return out, nil
}
