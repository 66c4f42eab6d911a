// Command serve loads a trained model and serves the prediction form.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/FlavioCFOliveira/resafraud/internal/config"
	"github.com/FlavioCFOliveira/resafraud/internal/infra"
	"github.com/FlavioCFOliveira/resafraud/internal/predict"
	"github.com/FlavioCFOliveira/resafraud/internal/train"
)

func main() {
	cfg := config.Load()
	logger := infra.SetupLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bundle, err := train.LoadBundle(cfg.ModelDir)
	if err != nil {
		logger.Error("failed to load model", "dir", cfg.ModelDir, "error", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := predict.NewRouter(predict.NewPredictor(bundle, predict.DefaultThreshold), logger)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	logger.Info("serving predictions", "addr", cfg.HTTPAddr, "model_dir", cfg.ModelDir)
	if err := predict.Serve(ctx, cfg.HTTPAddr, router); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
