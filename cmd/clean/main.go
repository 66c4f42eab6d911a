// Command clean decomposes the reservation timestamp of the raw table and
// normalises its boolean columns.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/resafraud/internal/clean"
	"github.com/FlavioCFOliveira/resafraud/internal/config"
	"github.com/FlavioCFOliveira/resafraud/internal/infra"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg, os.Stderr)

	if err := os.MkdirAll(filepath.Dir(cfg.CleanPath), 0o755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	t, err := clean.File(cfg.RawPath, cfg.CleanPath)
	if err != nil {
		logger.Error("cleaning failed", "src", cfg.RawPath, "error", err)
		os.Exit(1)
	}

	logger.Info("cleaned dataset written", "src", cfg.RawPath, "dst", cfg.CleanPath, "rows", t.Len(), "columns", len(t.Header))
	fmt.Printf("Cleaned dataset saved to %s\n", cfg.CleanPath)
}
