package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/storage"
)

type referenceKey struct {
	date time.Time
	he   int
}

// ReferenceStore is an in-memory implementation of storage.ReferenceStore.
type ReferenceStore struct {
	mu   sync.RWMutex
	data map[referenceKey]*domain.ReferenceHour
}

// NewReferenceStore creates a new in-memory reference store.
func NewReferenceStore() *ReferenceStore {
	return &ReferenceStore{
		data: make(map[referenceKey]*domain.ReferenceHour),
	}
}

func keyOf(h *domain.ReferenceHour) referenceKey {
	return referenceKey{date: storage.DayKey(h.Date), he: h.HE}
}

// InsertBulk adds multiple hours. Fails entire batch on duplicate.
func (s *ReferenceStore) InsertBulk(_ context.Context, hours []*domain.ReferenceHour) error {
	if len(hours) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: validate and check duplicates (existing + intra-batch)
	batchKeys := make(map[referenceKey]struct{}, len(hours))
	for _, h := range hours {
		if err := storage.ValidateHour(h); err != nil {
			return err
		}
		key := keyOf(h)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, h := range hours {
		c := h.Clone()
		c.Date = storage.DayKey(h.Date)
		s.data[keyOf(h)] = c
	}

	return nil
}

// GetByDate retrieves all hours for a date, ordered by HE ASC.
func (s *ReferenceStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.ReferenceHour, error) {
	return s.GetDateRange(ctx, date, date)
}

// GetDateRange retrieves hours for dates within [start, end] (inclusive).
func (s *ReferenceStore) GetDateRange(_ context.Context, start, end time.Time) ([]*domain.ReferenceHour, error) {
	start, end = storage.DayKey(start), storage.DayKey(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ReferenceHour
	for key, h := range s.data {
		if key.date.Before(start) || key.date.After(end) {
			continue
		}
		result = append(result, h.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].HE < result[j].HE
	})

	return result, nil
}

// Len returns the number of stored hours.
func (s *ReferenceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.ReferenceStore = (*ReferenceStore)(nil)
