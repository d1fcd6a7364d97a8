// Package main loads a historical reference CSV into PostgreSQL or ClickHouse.
// Migrations are applied before inserting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"power-market-lab/internal/config"
	"power-market-lab/internal/logger"
	"power-market-lab/internal/reference"
	"power-market-lab/internal/storage"
	chstore "power-market-lab/internal/storage/clickhouse"
	"power-market-lab/internal/storage/migrations"
	pgstore "power-market-lab/internal/storage/postgres"
)

func main() {
	csvPath := flag.String("csv", "", "Reference CSV file (required)")
	backend := flag.String("backend", config.BackendPostgres, "Target backend: postgres or clickhouse")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("PML_STORAGE_POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("PML_STORAGE_CLICKHOUSE_DSN"), "ClickHouse connection string")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log, err := logger.New(config.LogConfig{Level: *logLevel, Encoding: "console", Development: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *csvPath == "" {
		log.Fatal("--csv is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openMigrated(ctx, *backend, *postgresDSN, *clickhouseDSN, log)
	if err != nil {
		log.Fatal("open store", zap.String("backend", *backend), zap.Error(err))
	}
	defer closeStore()

	start := time.Now()
	n, debug, err := reference.LoadCSVFile(ctx, store, *csvPath)
	if err != nil {
		log.Fatal("load reference csv",
			zap.String("path", *csvPath),
			zap.String("status", string(debug.Status)),
			zap.Int("parsed", debug.Parsed),
			zap.Int("skipped", debug.Skipped),
			zap.Error(err))
	}

	log.Info("reference hours loaded",
		zap.String("backend", *backend),
		zap.String("path", *csvPath),
		zap.Int("rows", n),
		zap.Int("skipped", debug.Skipped),
		zap.Duration("elapsed", time.Since(start)))
}

// openMigrated connects to backend, applies migrations and returns the store.
func openMigrated(ctx context.Context, backend, postgresDSN, clickhouseDSN string, log *zap.Logger) (storage.ReferenceStore, func(), error) {
	switch backend {
	case config.BackendPostgres:
		if postgresDSN == "" {
			return nil, nil, fmt.Errorf("--postgres-dsn is required")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN, pgstore.WithMaxConns(2))
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("postgres migrations applied", zap.Strings("files", applied))
		return pgstore.NewReferenceStore(pool), pool.Close, nil

	case config.BackendClickhouse:
		if clickhouseDSN == "" {
			return nil, nil, fmt.Errorf("--clickhouse-dsn is required")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("clickhouse migrations applied")
		return chstore.NewReferenceStore(conn), func() { _ = conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", backend)
	}
}
