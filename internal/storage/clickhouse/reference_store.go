package clickhouse

import (
	"context"
	"fmt"
	"time"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/observability"
	"power-market-lab/internal/storage"
)

// ReferenceStore implements storage.ReferenceStore using ClickHouse.
type ReferenceStore struct {
	conn *Conn
}

// NewReferenceStore creates a new ReferenceStore.
func NewReferenceStore(conn *Conn) *ReferenceStore {
	return &ReferenceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ReferenceStore = (*ReferenceStore)(nil)

// InsertBulk adds multiple hours. Fails entire batch on duplicate (date, he).
func (s *ReferenceStore) InsertBulk(ctx context.Context, hours []*domain.ReferenceHour) (err error) {
	if len(hours) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_bulk", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	type key struct {
		date time.Time
		he   int
	}
	seen := make(map[key]struct{}, len(hours))
	for _, h := range hours {
		if err := storage.ValidateHour(h); err != nil {
			return err
		}
		k := key{storage.DayKey(h.Date), h.HE}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// ReplacingMergeTree does not reject duplicates, so check existing rows first
	for _, h := range hours {
		exists, err := s.exists(ctx, h.Date, h.HE)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO reference_hours (
			market_date, he, load_mw, pool_price, exports, imports
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, h := range hours {
		err = batch.Append(
			storage.DayKey(h.Date), uint8(h.HE), h.Load, h.Price,
			flowsOrEmpty(h.Exports), flowsOrEmpty(h.Imports),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
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
		observability.RecordDBQuery("clickhouse", "get_date_range", time.Since(began).Seconds(), err)
	}()

	query := `
		SELECT market_date, he, load_mw, pool_price, exports, imports
		FROM reference_hours FINAL
		WHERE market_date >= ? AND market_date <= ?
		ORDER BY market_date ASC, he ASC
	`

	rows, err := s.conn.Query(ctx, query, storage.DayKey(start), storage.DayKey(end))
	if err != nil {
		return nil, fmt.Errorf("query reference hours: %w", err)
	}
	defer rows.Close()

	return scanReferenceHours(rows)
}

// exists checks if an hour with the given key exists.
func (s *ReferenceStore) exists(ctx context.Context, date time.Time, he int) (bool, error) {
	query := `
		SELECT count(*) FROM reference_hours
		WHERE market_date = ? AND he = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, storage.DayKey(date), uint8(he)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func flowsOrEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

// scanReferenceHours scans multiple rows.
func scanReferenceHours(rows chRows) ([]*domain.ReferenceHour, error) {
	var hours []*domain.ReferenceHour

	for rows.Next() {
		var h domain.ReferenceHour
		var he uint8

		err := rows.Scan(&h.Date, &he, &h.Load, &h.Price, &h.Exports, &h.Imports)
		if err != nil {
			return nil, fmt.Errorf("scan reference hour row: %w", err)
		}

		h.Date = storage.DayKey(h.Date)
		h.HE = int(he)
		hours = append(hours, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference hour rows: %w", err)
	}

	return hours, nil
}
