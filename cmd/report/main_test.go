package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"power-market-lab/internal/pipeline"
)

func TestWriteOutputs(t *testing.T) {
	date := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	view := pipeline.Assemble(date, pipeline.NewRawReports(), pipeline.Reference{}, pipeline.Options{})

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := writeOutputs(dir, view)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, ext := range []string{".md", ".csv", ".xlsx", ".pdf"} {
		info, err := os.Stat(filepath.Join(dir, "day_2025-11-18"+ext))
		require.NoError(t, err, ext)
		assert.Positive(t, info.Size(), ext)
	}

	csv, err := os.ReadFile(filepath.Join(dir, "day_2025-11-18.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csv)), "\n")
	assert.Len(t, lines, 25)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}
