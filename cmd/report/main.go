// Command report prints an exploratory summary of a reservation table and
// saves it together with the correlation matrix under REPORT_DIR.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/resafraud/internal/config"
	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/infra"
	"github.com/FlavioCFOliveira/resafraud/internal/report"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg, os.Stderr)

	if err := run(cfg); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
	logger.Info("report written", "dir", cfg.ReportDir)
}

func run(cfg *config.Config) error {
	src := cfg.CleanPath
	if _, err := os.Stat(src); err != nil {
		src = cfg.RawPath
	}
	t, err := dataset.LoadTable(src)
	if err != nil {
		return err
	}
	s, err := report.Analyze(t)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", src, err)
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, s); err != nil {
		return err
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.ReportDir, "summary.txt"), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return report.SaveCorrelation(filepath.Join(cfg.ReportDir, "correlation.csv"), s)
}
