// Command generate writes a synthetic reservation dataset to RAW_PATH and,
// when DATABASE_URL is set, copies it into Postgres.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/config"
	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/generator"
	"github.com/FlavioCFOliveira/resafraud/internal/infra"
	"github.com/FlavioCFOliveira/resafraud/internal/metrics"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
	"github.com/FlavioCFOliveira/resafraud/internal/store"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("generation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	profiles := generator.DefaultProfiles()
	if cfg.ProfilePath != "" {
		var err error
		if profiles, err = generator.LoadProfiles(cfg.ProfilePath); err != nil {
			return err
		}
		logger.Info("loaded generation profiles", "path", cfg.ProfilePath)
	}

	start := time.Now()
	records, summary, err := generator.Build(ctx, generator.Options{
		Total:      cfg.DatasetSize,
		FraudRatio: cfg.FraudRatio,
		Seed:       cfg.Seed,
		Now:        cfg.AnchorTime,
		Profiles:   profiles,
		Workers:    cfg.Workers,
	})
	if err != nil {
		return err
	}
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	metrics.RecordsGenerated.WithLabelValues(reservation.Fraud.String()).Add(float64(summary.Fraud))
	metrics.RecordsGenerated.WithLabelValues(reservation.Legit.String()).Add(float64(summary.Legit))

	if err := os.MkdirAll(filepath.Dir(cfg.RawPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := dataset.SaveRecords(cfg.RawPath, records); err != nil {
		return err
	}
	logger.Info("dataset written", "path", cfg.RawPath, "rows", summary.Total, "seed", cfg.Seed, "elapsed", time.Since(start))

	fmt.Printf("Generated %d records with %.1f%% fraud rate\n", summary.Total, cfg.FraudRatio*100)
	fmt.Printf("Fraud records: %d\n", summary.Fraud)
	fmt.Printf("Legitimate records: %d\n", summary.Legit)
	fmt.Printf("Dataset saved to %s\n", cfg.RawPath)

	if cfg.DatabaseURL != "" {
		if err := storeRecords(ctx, cfg.DatabaseURL, records, logger); err != nil {
			return err
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func storeRecords(ctx context.Context, url string, records []reservation.Record, logger *slog.Logger) error {
	var repo *store.PostgresRepository
	err := infra.Retry(ctx, 5, infra.NewBackoff(500*time.Millisecond, 10*time.Second, 2), func() error {
		var err error
		repo, err = store.NewPostgresRepository(ctx, url)
		if err != nil {
			logger.Warn("postgres not reachable, retrying", "error", err)
		}
		return err
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	batchID := store.NewBatchID()
	n, err := repo.InsertBatch(ctx, batchID, records)
	if err != nil {
		return err
	}
	metrics.RecordsStored.Add(float64(n))
	logger.Info("records stored", "batch_id", batchID, "rows", n)
	return nil
}
