// Package main renders one market day to Markdown, CSV, XLSX and PDF files.
// Reports are fetched live unless --input-dir points at saved report files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"power-market-lab/internal/config"
	"power-market-lab/internal/domain"
	"power-market-lab/internal/logger"
	"power-market-lab/internal/pipeline"
	"power-market-lab/internal/reporting"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config (environment only when missing)")
	dateFlag := flag.String("date", "", "Market date YYYY-MM-DD (default: today in the market timezone)")
	inputDir := flag.String("input-dir", "", "Directory of saved report files instead of fetching")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	referenceCSV := flag.String("reference-csv", "", "Reference CSV for the memory backend")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
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

	date := builder.Today()
	if *dateFlag != "" {
		date, err = domain.ParseDate(*dateFlag)
		if err != nil {
			log.Fatal("invalid --date", zap.String("date", *dateFlag), zap.Error(err))
		}
	}

	var view *pipeline.DayView
	if *inputDir != "" {
		log.Info("reading saved reports", zap.String("dir", *inputDir))
		view, err = builder.BuildFromRaw(ctx, date, pipeline.ReadDir(*inputDir))
	} else {
		view, err = builder.BuildDay(ctx, date)
	}
	if err != nil {
		log.Fatal("build day", zap.Error(err))
	}

	paths, err := writeOutputs(*outputDir, view)
	if err != nil {
		log.Fatal("write outputs", zap.Error(err))
	}

	fmt.Printf("Market day %s generated (snapshot %s):\n", view.Date.Format(domain.DateLayout), view.SnapshotID)
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
}

// writeOutputs renders view into dir and returns the written paths.
func writeOutputs(dir string, view *pipeline.DayView) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	xlsx, err := reporting.BuildXLSX(view)
	if err != nil {
		return nil, fmt.Errorf("build xlsx: %w", err)
	}

	pdf, err := reporting.BuildPDF(view)
	if err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}

	base := filepath.Join(dir, "day_"+view.Date.Format(domain.DateLayout))
	outputs := []struct {
		path string
		data []byte
	}{
		{base + ".md", []byte(reporting.RenderMarkdown(view))},
		{base + ".csv", []byte(reporting.RenderCSV(view.Records))},
		{base + ".xlsx", xlsx},
		{base + ".pdf", pdf},
	}

	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if err := os.WriteFile(out.path, out.data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", out.path, err)
		}
		paths = append(paths, out.path)
	}
	return paths, nil
}

// loadConfig reads path when it exists, otherwise defaults plus environment.
func loadConfig(path string) (config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return config.Load(path, true)
	}
	return config.Load(path, false)
}
