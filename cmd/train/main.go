// Command train fits the fraud classifier on the cleaned table, saves the
// model bundle to MODEL_DIR and the evaluation to REPORT_DIR.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/FlavioCFOliveira/resafraud/internal/config"
	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/infra"
	"github.com/FlavioCFOliveira/resafraud/internal/train"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	t, err := dataset.LoadTable(cfg.CleanPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tc := train.DefaultConfig()
	tc.Epochs = cfg.Epochs
	tc.BatchSize = cfg.BatchSize
	tc.LearningRate = cfg.LearningRate
	tc.Seed = cfg.Seed
	tc.TrainingLog = filepath.Join(cfg.ReportDir, "training.csv")
	tc.Checkpoint = filepath.Join(cfg.ModelDir, "checkpoint.bin")

	logger.Info("training", "rows", t.Len(), "epochs", tc.Epochs, "batch_size", tc.BatchSize, "lr", tc.LearningRate, "hidden", tc.Hidden)
	res, err := train.Run(ctx, t, tc)
	if err != nil {
		return err
	}
	logger.Info("training complete", "train", res.TrainSize, "test", res.TestSize, "epochs_run", len(res.History), "auc", res.Evaluation.AUC, "test_loss", res.Evaluation.Loss)

	if err := res.Bundle.Save(cfg.ModelDir); err != nil {
		return err
	}
	logger.Info("model saved", "dir", cfg.ModelDir)

	var buf bytes.Buffer
	if err := res.Evaluation.Write(&buf); err != nil {
		return err
	}
	if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.ReportDir, "evaluation.txt"), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write evaluation: %w", err)
	}

	data, err := json.MarshalIndent(res.Evaluation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}
	return os.WriteFile(filepath.Join(cfg.ReportDir, "evaluation.json"), data, 0o644)
}
