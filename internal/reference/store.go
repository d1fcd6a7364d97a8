package reference

import (
	"context"
	"fmt"
	"os"

	"power-market-lab/internal/config"
	"power-market-lab/internal/observability"
	"power-market-lab/internal/reports"
	"power-market-lab/internal/storage"
	chstore "power-market-lab/internal/storage/clickhouse"
	"power-market-lab/internal/storage/memory"
	pgstore "power-market-lab/internal/storage/postgres"
)

// OpenStore connects the configured reference backend. The memory backend is
// filled from cfg.ReferenceCSV when set. The returned cleanup closes connections.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.ReferenceStore, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN,
			pgstore.WithMaxConns(cfg.PostgresMaxConns),
			pgstore.WithConnectTimeout(cfg.ConnectTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return pgstore.NewReferenceStore(pool), pool.Close, nil

	case config.BackendClickhouse:
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return chstore.NewReferenceStore(conn), func() { _ = conn.Close() }, nil

	case config.BackendMemory, "":
		store := memory.NewReferenceStore()
		if cfg.ReferenceCSV != "" {
			if _, _, err := LoadCSVFile(ctx, store, cfg.ReferenceCSV); err != nil {
				return nil, nil, err
			}
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// LoadCSVFile parses the reference CSV at path and inserts its rows into store.
// It returns the number of rows inserted and the parse summary.
func LoadCSVFile(ctx context.Context, store storage.ReferenceStore, path string) (int, reports.Debug, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, reports.Debug{}, fmt.Errorf("read reference csv: %w", err)
	}

	hours, debug := ParseCSV(string(data))
	if len(hours) == 0 {
		return 0, debug, fmt.Errorf("reference csv %s: %s", path, debug.Reason)
	}
	if err := store.InsertBulk(ctx, hours); err != nil {
		return 0, debug, fmt.Errorf("insert reference hours: %w", err)
	}

	observability.RecordReferenceRows(len(hours))
	return len(hours), debug, nil
}
