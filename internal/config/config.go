package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultDatasetSize = 5000
	DefaultFraudRatio  = 0.15
	DefaultSeed        = 42
)

type Config struct {
	DatasetSize int
	FraudRatio  float64
	Seed        uint64
	AnchorTime  time.Time
	Workers     int

	ProfilePath string
	RawPath     string
	CleanPath   string
	ModelDir    string
	ReportDir   string

	Epochs       int
	BatchSize    int
	LearningRate float64

	HTTPAddr        string
	DatabaseURL     string
	MetricsTextfile string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	_ = godotenv.Load()

	size := getEnvInt("DATASET_SIZE", DefaultDatasetSize)
	if size < 0 {
		slog.Warn("DATASET_SIZE is negative, using default", "requested", size, "default", DefaultDatasetSize)
		size = DefaultDatasetSize
	}

	ratio := getEnvFloat("FRAUD_RATIO", DefaultFraudRatio)
	if ratio < 0 || ratio > 1 {
		clamped := min(max(ratio, 0), 1)
		slog.Warn("FRAUD_RATIO outside [0,1], clamping", "requested", ratio, "clamped", clamped)
		ratio = clamped
	}

	return &Config{
		DatasetSize: size,
		FraudRatio:  ratio,
		Seed:        getEnvUint("SEED", DefaultSeed),
		AnchorTime:  getEnvTime("ANCHOR_TIME", time.Now()),
		Workers:     max(getEnvInt("WORKERS", 0), 0),

		ProfilePath: getEnv("PROFILE_PATH", ""),
		RawPath:     getEnv("RAW_PATH", "data/fraud_dataset.csv"),
		CleanPath:   getEnv("CLEAN_PATH", "data/cleaned_fraud_dataset.csv"),
		ModelDir:    getEnv("MODEL_DIR", "models"),
		ReportDir:   getEnv("REPORT_DIR", "reports"),

		Epochs:       getEnvInt("EPOCHS", 60),
		BatchSize:    getEnvInt("BATCH_SIZE", 32),
		LearningRate: getEnvFloat("LEARNING_RATE", 0.005),

		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "TEXT"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		slog.Warn("invalid integer, using default", "key", key, "value", value, "default", fallback)
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
		slog.Warn("invalid unsigned integer, using default", "key", key, "value", value, "default", fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		slog.Warn("invalid number, using default", "key", key, "value", value, "default", fallback)
	}
	return fallback
}

func getEnvTime(key string, fallback time.Time) time.Time {
	if value, ok := os.LookupEnv(key); ok {
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t
		}
		slog.Warn("invalid RFC3339 time, using default", "key", key, "value", value)
	}
	return fallback
}
