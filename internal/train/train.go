// Package train fits the fraud classifier on a cleaned reservation table and
// evaluates it on a held-out stratified split.
package train

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/resafraud/internal/activations"
	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/encoding"
	"github.com/FlavioCFOliveira/resafraud/internal/features"
	"github.com/FlavioCFOliveira/resafraud/internal/layer"
	"github.com/FlavioCFOliveira/resafraud/internal/loss"
	"github.com/FlavioCFOliveira/resafraud/internal/net"
	"github.com/FlavioCFOliveira/resafraud/internal/opt"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// Learning rate schedules accepted by Config.Schedule.
const (
	SchedulePlateau = "plateau"
	ScheduleStep    = "step"
	ScheduleNone    = "none"
)

// Config controls a training run.
type Config struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	TestRatio    float64
	Seed         uint64
	Hidden       []int
	Threshold    float64
	Schedule     string

	// Patience > 0 enables early stopping on the training loss.
	Patience int
	// LogInterval is the number of epochs between progress log lines.
	LogInterval int
	// TrainingLog, when set, receives one CSV line per epoch with the
	// held-out loss and fraud recall.
	TrainingLog string
	// Checkpoint, when set, receives the network of the epoch with the lowest
	// training loss.
	Checkpoint string
}

// DefaultConfig returns the settings used by cmd/train.
func DefaultConfig() Config {
	return Config{
		Epochs:       60,
		BatchSize:    32,
		LearningRate: 0.005,
		TestRatio:    0.2,
		Seed:         42,
		Hidden:       []int{16, 8},
		Threshold:    0.5,
		Schedule:     SchedulePlateau,
		Patience:     10,
		LogInterval:  10,
	}
}

// Result is the outcome of Run.
type Result struct {
	Bundle     *Bundle
	Evaluation Evaluation
	History    []float64
	TrainSize  int
	TestSize   int
}

// Run trains a classifier on the cleaned table t.
func Run(ctx context.Context, t *dataset.Table, cfg Config) (*Result, error) {
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("epochs and batch size must be positive, got %d and %d", cfg.Epochs, cfg.BatchSize)
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		return nil, fmt.Errorf("test ratio must be in (0,1), got %v", cfg.TestRatio)
	}

	enc, err := features.FitEncoders(t)
	if err != nil {
		return nil, fmt.Errorf("failed to fit encoders: %w", err)
	}
	x, y, err := features.Matrix(t, enc)
	if err != nil {
		return nil, fmt.Errorf("failed to build feature matrix: %w", err)
	}

	all := &net.Dataset{X: x, Y: make([][]float64, len(y))}
	for i, v := range y {
		all.Y[i] = []float64{v}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trainSet, testSet := all.StratifiedSplit(cfg.TestRatio, rng)
	if trainSet.Len() == 0 || testSet.Len() == 0 {
		return nil, fmt.Errorf("split of %d rows left an empty side", all.Len())
	}

	scaler := encoding.FitScaler(trainSet.X)
	scaler.TransformAll(trainSet.X)
	scaler.TransformAll(testSet.X)

	network := Network(len(features.Features), cfg.Hidden, cfg.LearningRate, rng)

	callbacks := []net.Callback{net.Logger{Interval: cfg.LogInterval}}
	switch cfg.Schedule {
	case SchedulePlateau:
		callbacks = append(callbacks, net.NewSchedulerCallback(opt.NewReduceLROnPlateau(network.Optimizer(), 0.5, 3, 1e-4, 1e-5)))
	case ScheduleStep:
		callbacks = append(callbacks, net.NewSchedulerCallback(opt.NewStepLR(network.Optimizer(), 20, 0.5)))
	}
	if cfg.Patience > 0 {
		callbacks = append(callbacks, net.NewEarlyStopping(cfg.Patience, 1e-4))
	}
	if cfg.TrainingLog != "" {
		recall := net.EpochMetric{
			Name: "val_fraud_recall",
			Eval: func(n *net.Network) float64 { return fraudRecall(n, testSet, cfg.Threshold) },
		}
		callbacks = append(callbacks, net.NewCSVLogger(cfg.TrainingLog, false, net.ValidationLoss(testSet), recall))
	}
	if cfg.Checkpoint != "" {
		callbacks = append(callbacks, net.NewModelCheckpoint(cfg.Checkpoint))
	}

	slog.Info("training", "train", trainSet.Len(), "test", testSet.Len(), "features", len(features.Features), "epochs", cfg.Epochs)
	history, err := network.Fit(ctx, trainSet, cfg.Epochs, cfg.BatchSize, func(d *net.Dataset) { d.Shuffle(rng) }, callbacks...)
	if err != nil {
		return nil, fmt.Errorf("training interrupted: %w", err)
	}

	probs := make([]float64, testSet.Len())
	labels := make([]float64, testSet.Len())
	for i := range testSet.X {
		probs[i] = network.Predict(testSet.X[i])
		labels[i] = testSet.Y[i][0]
	}
	eval, err := Evaluate(probs, labels, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	eval.Loss = network.Evaluate(testSet.X, testSet.Y)
	slog.Info("evaluation", "loss", eval.Loss, "accuracy", eval.Accuracy, "auc", eval.AUC, "fraud_recall", eval.Fraud.Recall)

	return &Result{
		Bundle: &Bundle{
			Network:  network,
			Encoders: enc,
			Scaler:   scaler,
			Features: features.Names(),
		},
		Evaluation: eval,
		History:    history,
		TrainSize:  trainSet.Len(),
		TestSize:   testSet.Len(),
	}, nil
}

// fraudRecall is the share of fraud rows of ds scored above threshold.
func fraudRecall(n *net.Network, ds *net.Dataset, threshold float64) float64 {
	var tp, positives int
	for i, x := range ds.X {
		if ds.Y[i][0] != float64(reservation.Fraud) {
			continue
		}
		positives++
		if n.Predict(x) > threshold {
			tp++
		}
	}
	if positives == 0 {
		return 0
	}
	return float64(tp) / float64(positives)
}

// Network builds the classifier: ReLU hidden layers of the given sizes and a
// single Sigmoid output, trained with BCE and Adam.
func Network(inputs int, hidden []int, lr float64, rng *rand.Rand) *net.Network {
	var layers []layer.Layer
	in := inputs
	for _, h := range hidden {
		layers = append(layers, layer.NewDense(in, h, activations.ReLU{}, rng))
		in = h
	}
	layers = append(layers, layer.NewDense(in, 1, activations.Sigmoid{}, rng))
	return net.New(layers, loss.BCELoss{}, opt.NewAdam(lr))
}
