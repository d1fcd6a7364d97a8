package storage

import (
	"context"
	"time"

	"power-market-lab/internal/domain"
)

// ReferenceStore provides access to reference_hours storage.
type ReferenceStore interface {
	// InsertBulk adds multiple hours atomically. Fails entire batch on duplicate (date, he).
	InsertBulk(ctx context.Context, hours []*domain.ReferenceHour) error

	// GetByDate retrieves all hours for a calendar date, ordered by HE ASC.
	GetByDate(ctx context.Context, date time.Time) ([]*domain.ReferenceHour, error)

	// GetDateRange retrieves hours for dates within [start, end] (inclusive),
	// ordered by date ASC, HE ASC.
	GetDateRange(ctx context.Context, start, end time.Time) ([]*domain.ReferenceHour, error)
}

// DayKey normalizes t to its calendar date at UTC midnight.
func DayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateHour checks the fields every backend requires.
func ValidateHour(h *domain.ReferenceHour) error {
	if h == nil || h.Date.IsZero() || !domain.ValidHE(h.HE) {
		return ErrInvalidInput
	}
	return nil
}
