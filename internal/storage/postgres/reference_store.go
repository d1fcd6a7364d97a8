package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/observability"
	"power-market-lab/internal/storage"
)

// ReferenceStore implements storage.ReferenceStore using PostgreSQL.
type ReferenceStore struct {
	pool *Pool
}

// NewReferenceStore creates a new ReferenceStore.
func NewReferenceStore(pool *Pool) *ReferenceStore {
	return &ReferenceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReferenceStore = (*ReferenceStore)(nil)

// InsertBulk adds multiple hours atomically. Fails entire batch on any duplicate.
func (s *ReferenceStore) InsertBulk(ctx context.Context, hours []*domain.ReferenceHour) (err error) {
	if len(hours) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_bulk", time.Since(start).Seconds(), err)
	}()
	for _, h := range hours {
		if err := storage.ValidateHour(h); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO reference_hours (
			market_date, he, load_mw, pool_price, exports, imports
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, h := range hours {
		batch.Queue(query,
			storage.DayKey(h.Date),
			h.HE,
			h.Load,
			h.Price,
			flowsOrEmpty(h.Exports),
			flowsOrEmpty(h.Imports),
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range hours {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert reference hour in bulk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByDate retrieves all hours for a date, ordered by HE ASC.
func (s *ReferenceStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.ReferenceHour, error) {
	return s.GetDateRange(ctx, date, date)
}

// GetDateRange retrieves hours for dates within [start, end] (inclusive).
func (s *ReferenceStore) GetDateRange(ctx context.Context, start, end time.Time) (hours []*domain.ReferenceHour, err error) {
	began := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "get_date_range", time.Since(began).Seconds(), err)
	}()

	query := `
		SELECT market_date, he, load_mw, pool_price, exports, imports
		FROM reference_hours
		WHERE market_date >= $1 AND market_date <= $2
		ORDER BY market_date ASC, he ASC
	`

	rows, err := s.pool.Query(ctx, query, storage.DayKey(start), storage.DayKey(end))
	if err != nil {
		return nil, fmt.Errorf("get reference hours by date range: %w", err)
	}
	defer rows.Close()

	return scanReferenceHours(rows)
}

func flowsOrEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

// scanReferenceHours scans multiple rows into a slice of ReferenceHour.
func scanReferenceHours(rows pgx.Rows) ([]*domain.ReferenceHour, error) {
	var hours []*domain.ReferenceHour

	for rows.Next() {
		var h domain.ReferenceHour

		err := rows.Scan(&h.Date, &h.HE, &h.Load, &h.Price, &h.Exports, &h.Imports)
		if err != nil {
			return nil, fmt.Errorf("scan reference hour: %w", err)
		}

		h.Date = storage.DayKey(h.Date)
		hours = append(hours, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference hours: %w", err)
	}

	return hours, nil
}
