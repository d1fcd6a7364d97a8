// Package main runs the market day service:
// - Refresh (cron): fetch reports, assemble today's view, push on change
// - HTTP: /health, /metrics, /status, /api/day, /ws
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"power-market-lab/internal/config"
	"power-market-lab/internal/logger"
	"power-market-lab/internal/observability"
	"power-market-lab/internal/pipeline"
	"power-market-lab/internal/push"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", "config.yaml", "Path to YAML config (environment only when missing)")
	httpAddr := flag.String("http-addr", "", "HTTP listen address (overrides server.http_addr)")
	backend := flag.String("storage", "", "Reference storage backend: memory, postgres, clickhouse")
	referenceCSV := flag.String("reference-csv", "", "Reference CSV for the memory backend")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *referenceCSV != "" {
		cfg.Storage.ReferenceCSV = *referenceCSV
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder, cleanup, err := pipeline.FromConfig(ctx, cfg, log)
	if err != nil {
		log.Fatal("build pipeline", zap.Error(err))
	}
	defer cleanup()

	hubCfg := push.DefaultHubConfig()
	if cfg.Server.WSPingInterval > 0 {
		hubCfg.PingInterval = cfg.Server.WSPingInterval
		hubCfg.ReadTimeout = 2 * cfg.Server.WSPingInterval
	}
	hub := push.NewHub(&hubCfg, log.Named("ws"))
	server := NewServer(builder, hub, log)

	// Run immediately on start
	go server.Refresh(ctx)
	go trackUptime(ctx, 15*time.Second)

	var scheduler *cron.Cron
	if cfg.Cron.Enabled {
		scheduler = cron.New(cron.WithSeconds())
		if _, err := scheduler.AddFunc(cfg.Cron.Refresh, func() { server.Refresh(ctx) }); err != nil {
			log.Fatal("invalid refresh schedule", zap.String("spec", cfg.Cron.Refresh), zap.Error(err))
		}
		scheduler.Start()
		log.Info("cron started", zap.String("refresh", cfg.Cron.Refresh))
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
		log.Info("cron stopped")
	}
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// trackUptime adds elapsed time to the uptime counter until ctx is done.
func trackUptime(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			observability.RecordUptime(now.Sub(last).Seconds())
			last = now
		}
	}
}

// loadConfig reads path when it exists, otherwise defaults plus environment.
func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return config.Load(path, true)
	}
	return config.Load(path, false)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
