package train

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/clean"
	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/generator"
	"github.com/FlavioCFOliveira/resafraud/internal/net"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

var anchor = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func cleanedTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	records, _, err := generator.Build(context.Background(), generator.Options{
		Total:      n,
		FraudRatio: 0.15,
		Seed:       42,
		Now:        anchor,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	table := dataset.FromRecords(records)
	if err := clean.Table(table); err != nil {
		t.Fatalf("clean: %v", err)
	}
	return table
}

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.Epochs = 15
	cfg.LearningRate = 0.01
	cfg.LogInterval = 0
	return cfg
}

// TestRunSeparatesClasses tests that the classifier learns the generated
// fraud profile.
func TestRunSeparatesClasses(t *testing.T) {
	res, err := Run(context.Background(), cleanedTable(t, 1500), quickConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TrainSize+res.TestSize != 1500 || res.TestSize != 300 {
		t.Errorf("split = %d/%d, want 1200/300", res.TrainSize, res.TestSize)
	}
	if res.Evaluation.Fraud.Support != 45 {
		t.Errorf("fraud support = %d, want 45", res.Evaluation.Fraud.Support)
	}
	if res.Evaluation.AUC < 0.85 {
		t.Errorf("AUC = %.3f, want >= 0.85", res.Evaluation.AUC)
	}
	if res.Evaluation.Accuracy < 0.85 {
		t.Errorf("accuracy = %.3f, want >= 0.85", res.Evaluation.Accuracy)
	}
	if len(res.History) == 0 || res.History[len(res.History)-1] >= res.History[0] {
		t.Errorf("loss did not decrease: %v", res.History)
	}
}

// TestRunDeterministic tests that the same seed gives the same model.
func TestRunDeterministic(t *testing.T) {
	cfg := quickConfig()
	cfg.Epochs = 3

	a, err := Run(context.Background(), cleanedTable(t, 400), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(context.Background(), cleanedTable(t, 400), cfg)
	if err != nil {
		t.Fatal(err)
	}

	pa, pb := a.Bundle.Network.Params(), b.Bundle.Network.Params()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("param %d differs: %v vs %v", i, pa[i], pb[i])
		}
	}
}

// TestRunRejectsBadConfig tests configuration validation.
func TestRunRejectsBadConfig(t *testing.T) {
	table := cleanedTable(t, 100)
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"zero epochs", func(c *Config) { c.Epochs = 0 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"ratio 1", func(c *Config) { c.TestRatio = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quickConfig()
			tt.edit(&cfg)
			if _, err := Run(context.Background(), table, cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestRunMissingColumn tests that an uncleaned table is rejected.
func TestRunMissingColumn(t *testing.T) {
	table := cleanedTable(t, 50)
	table.Drop(reservation.ColHour)

	_, err := Run(context.Background(), table, quickConfig())
	if !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}

// TestBundleSaveLoad tests that a reloaded bundle scores identically.
func TestBundleSaveLoad(t *testing.T) {
	cfg := quickConfig()
	cfg.Epochs = 2
	table := cleanedTable(t, 300)
	res, err := Run(context.Background(), table, cfg)
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "model")
	if err := res.Bundle.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, name := range []string{ModelFile, EncodersFile, ScalerFile, FeaturesFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	loaded, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}

	row := make(map[string]string)
	for i, col := range table.Header {
		row[col] = table.Rows[0][i]
	}
	want, err := res.Bundle.Score(row)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Score(row)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got, want)
	}
}

// TestRunTrainingOutputs tests the per-epoch log, the checkpoint and the
// held-out loss.
func TestRunTrainingOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := quickConfig()
	cfg.Epochs = 4
	cfg.Patience = 0
	cfg.TrainingLog = filepath.Join(dir, "training.csv")
	cfg.Checkpoint = filepath.Join(dir, "checkpoint.bin")

	res, err := Run(context.Background(), cleanedTable(t, 300), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Evaluation.Loss <= 0 {
		t.Errorf("held-out loss = %v, want > 0", res.Evaluation.Loss)
	}

	f, err := os.Open(cfg.TrainingLog)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("log rows = %d, want header + 4", len(rows))
	}
	if got := rows[0][len(rows[0])-2:]; got[0] != "val_loss" || got[1] != "val_fraud_recall" {
		t.Errorf("header = %v", rows[0])
	}
	for _, row := range rows[1:] {
		recall, err := strconv.ParseFloat(row[len(row)-1], 64)
		if err != nil || recall < 0 || recall > 1 {
			t.Errorf("recall column = %q", row[len(row)-1])
		}
	}

	checkpoint, err := net.Load(cfg.Checkpoint)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if got, want := len(checkpoint.Params()), len(res.Bundle.Network.Params()); got != want {
		t.Errorf("checkpoint params = %d, want %d", got, want)
	}
}

// TestLoadBundleFeatureMismatch tests that a reordered feature list is refused.
func TestLoadBundleFeatureMismatch(t *testing.T) {
	cfg := quickConfig()
	cfg.Epochs = 1
	res, err := Run(context.Background(), cleanedTable(t, 100), cfg)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	res.Bundle.Features[0], res.Bundle.Features[1] = res.Bundle.Features[1], res.Bundle.Features[0]
	if err := res.Bundle.Save(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadBundle(dir); !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("err = %v, want ErrFeatureMismatch", err)
	}
}

// TestEvaluate tests the metrics against a hand-computed confusion matrix.
func TestEvaluate(t *testing.T) {
	probs := []float64{0.9, 0.8, 0.3, 0.6, 0.2, 0.1}
	labels := []float64{1, 1, 1, 0, 0, 0}

	e, err := Evaluate(probs, labels, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if e.TP != 2 || e.FN != 1 || e.FP != 1 || e.TN != 2 {
		t.Fatalf("confusion = TP%d FN%d FP%d TN%d", e.TP, e.FN, e.FP, e.TN)
	}

	tests := []struct {
		name      string
		got, want float64
	}{
		{"accuracy", e.Accuracy, 4.0 / 6},
		{"fraud precision", e.Fraud.Precision, 2.0 / 3},
		{"fraud recall", e.Fraud.Recall, 2.0 / 3},
		{"legit precision", e.Legit.Precision, 2.0 / 3},
		{"legit recall", e.Legit.Recall, 2.0 / 3},
		{"fraud f1", e.Fraud.F1, 2.0 / 3},
		// 8 of 9 positive/negative pairs are ordered correctly.
		{"auc", e.AUC, 8.0 / 9},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if e.Fraud.Support != 3 || e.Legit.Support != 3 {
		t.Errorf("support = %d/%d, want 3/3", e.Fraud.Support, e.Legit.Support)
	}
}

// TestEvaluateSingleClass tests the AUC fallback when one class is absent.
func TestEvaluateSingleClass(t *testing.T) {
	e, err := Evaluate([]float64{0.1, 0.7}, []float64{0, 0}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if e.AUC != 0.5 {
		t.Errorf("AUC = %v, want 0.5", e.AUC)
	}
	if e.Fraud.Precision != 0 || e.Fraud.Support != 0 {
		t.Errorf("fraud metrics = %+v, want zero", e.Fraud)
	}
}

// TestEvaluateWrite tests the report layout.
func TestEvaluateWrite(t *testing.T) {
	e, _ := Evaluate([]float64{0.9, 0.1}, []float64{1, 0}, 0.5)

	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"precision", "fraud", "legit", "accuracy", "ROC AUC: 1.0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
