// Package net provides unit tests for the network.
package net

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/resafraud/internal/activations"
	"github.com/FlavioCFOliveira/resafraud/internal/layer"
	"github.com/FlavioCFOliveira/resafraud/internal/loss"
	"github.com/FlavioCFOliveira/resafraud/internal/opt"
)

func newTestNetwork(seed uint64, sizes ...int) *Network {
	rng := rand.New(rand.NewSource(seed))
	var layers []layer.Layer
	for i := 0; i < len(sizes)-1; i++ {
		var act activations.Activation = activations.Tanh{}
		if i == len(sizes)-2 {
			act = activations.Sigmoid{}
		}
		layers = append(layers, layer.NewDense(sizes[i], sizes[i+1], act, rng))
	}
	return New(layers, loss.BCELoss{}, opt.NewAdam(0.05))
}

// TestNetworkForward tests forward pass through network.
func TestNetworkForward(t *testing.T) {
	network := newTestNetwork(1, 2, 2, 1)

	output := network.Forward([]float64{1.0, 2.0})
	if len(output) != 1 {
		t.Fatalf("Output length = %d, want 1", len(output))
	}
	if output[0] <= 0 || output[0] >= 1 {
		t.Errorf("Sigmoid output = %v, want (0, 1)", output[0])
	}
}

// TestNetworkBackward tests the shape of the input gradient.
func TestNetworkBackward(t *testing.T) {
	network := newTestNetwork(1, 2, 3, 1)

	yPred := network.Forward([]float64{1.0, 2.0})
	grad := make([]float64, 1)
	loss.BCELoss{}.BackwardInPlace(yPred, []float64{1}, grad)

	if got := len(network.Backward(grad)); got != 2 {
		t.Errorf("Input gradient length = %d, want 2", got)
	}
}

// TestNetworkXOR tests XOR learning.
func TestNetworkXOR(t *testing.T) {
	network := newTestNetwork(7, 2, 4, 1)

	trainX := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	trainY := [][]float64{{0}, {1}, {1}, {0}}

	for epoch := 0; epoch < 2000; epoch++ {
		network.TrainBatch(trainX, trainY)
	}

	for i, x := range trainX {
		pred := network.Predict(x)
		if math.Abs(pred-trainY[i][0]) > 0.2 {
			t.Errorf("XOR%v = %v, want ~%v", x, pred, trainY[i][0])
		}
	}
}

// TestNetworkTrainBatchEmpty tests that an empty batch is a no-op.
func TestNetworkTrainBatchEmpty(t *testing.T) {
	network := newTestNetwork(1, 2, 1)
	before := network.Params()

	if l := network.TrainBatch(nil, nil); l != 0 {
		t.Errorf("loss = %v, want 0", l)
	}
	after := network.Params()
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("params changed on empty batch")
		}
	}
}

// TestNetworkTrainBatchAveragesGradients tests that a batch of identical
// samples takes the same SGD step as the single sample.
func TestNetworkTrainBatchAveragesGradients(t *testing.T) {
	build := func() *Network {
		rng := rand.New(rand.NewSource(3))
		return New([]layer.Layer{layer.NewDense(2, 1, activations.Sigmoid{}, rng)}, loss.MSE{}, &opt.SGD{LR: 0.5})
	}
	x := []float64{0.3, -0.7}
	y := []float64{1}

	single := build()
	single.TrainBatch([][]float64{x}, [][]float64{y})

	batch := build()
	batch.TrainBatch([][]float64{x, x, x}, [][]float64{y, y, y})

	p1, p2 := single.Params(), batch.Params()
	for i := range p1 {
		if math.Abs(p1[i]-p2[i]) > 1e-12 {
			t.Errorf("param %d: single %v, batch %v", i, p1[i], p2[i])
		}
	}
}

// TestNetworkFitLossDecreases tests Fit on a separable problem.
func TestNetworkFitLossDecreases(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ds := &Dataset{}
	for i := 0; i < 200; i++ {
		a, b := rng.Float64(), rng.Float64()
		label := 0.0
		if a+b > 1 {
			label = 1
		}
		ds.X = append(ds.X, []float64{a, b})
		ds.Y = append(ds.Y, []float64{label})
	}

	network := newTestNetwork(5, 2, 4, 1)
	history, err := network.Fit(context.Background(), ds, 30, 16, func(d *Dataset) { d.Shuffle(rng) })
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(history) != 30 {
		t.Fatalf("history length = %d, want 30", len(history))
	}
	if history[len(history)-1] >= history[0]*0.5 {
		t.Errorf("loss did not decrease enough: %v -> %v", history[0], history[len(history)-1])
	}
}

// TestNetworkFitEarlyStopping tests that a Stopper ends training.
func TestNetworkFitEarlyStopping(t *testing.T) {
	ds := &Dataset{X: [][]float64{{0}, {1}}, Y: [][]float64{{0}, {1}}}
	network := New([]layer.Layer{layer.NewDense(1, 1, activations.Sigmoid{}, rand.New(rand.NewSource(1)))}, loss.BCELoss{}, &opt.SGD{LR: 0})

	es := NewEarlyStopping(2, 1e-9)
	history, err := network.Fit(context.Background(), ds, 50, 2, nil, es)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	// Epoch 1 sets the best loss, epochs 2 and 3 do not improve with LR 0.
	if len(history) != 3 {
		t.Errorf("history length = %d, want 3", len(history))
	}
	if !es.ShouldStop() {
		t.Error("EarlyStopping did not stop")
	}
}

// TestNetworkFitCancelled tests that a cancelled context stops Fit.
func TestNetworkFitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := &Dataset{X: [][]float64{{0, 0}}, Y: [][]float64{{0}}}
	_, err := newTestNetwork(1, 2, 1).Fit(ctx, ds, 5, 1, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// TestNetworkEncodeDecode tests that a decoded network predicts identically.
func TestNetworkEncodeDecode(t *testing.T) {
	network := newTestNetwork(9, 3, 5, 1)

	var buf bytes.Buffer
	if err := network.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	loaded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if loaded.Loss().Name() != "BCE" || loaded.Optimizer().Name() != "Adam" {
		t.Errorf("loaded loss/opt = %s/%s", loaded.Loss().Name(), loaded.Optimizer().Name())
	}
	if loaded.Optimizer().LearningRate() != 0.05 {
		t.Errorf("learning rate = %v, want 0.05", loaded.Optimizer().LearningRate())
	}

	x := []float64{0.1, -0.4, 2}
	if a, b := network.Predict(x), loaded.Predict(x); a != b {
		t.Errorf("prediction changed: %v -> %v", a, b)
	}
}

// TestNetworkSaveLoad tests the file round trip and the checkpoint callback.
func TestNetworkSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.bin")

	network := newTestNetwork(2, 2, 1)
	cp := NewModelCheckpoint(path)
	cp.OnEpochEnd(1, 0.5, network)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("checkpoint not written: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := len(loaded.Params()), len(network.Params()); got != want {
		t.Errorf("params = %d, want %d", got, want)
	}
}

type identity struct{}

func (identity) Forward(x []float64) []float64  { return x }
func (identity) Backward(g []float64) []float64 { return g }
func (identity) Params() []float64              { return nil }
func (identity) SetParams([]float64)            {}
func (identity) Gradients() []float64           { return nil }
func (identity) ZeroGrad()                      {}
func (identity) InSize() int                    { return 1 }
func (identity) OutSize() int                   { return 1 }

// TestEncodeUnsupportedLayer tests the error for non-Dense layers.
func TestEncodeUnsupportedLayer(t *testing.T) {
	network := New([]layer.Layer{identity{}}, loss.MSE{}, &opt.SGD{LR: 0.1})
	err := network.Encode(&bytes.Buffer{})
	if !errors.Is(err, ErrUnsupportedLayer) {
		t.Errorf("err = %v, want ErrUnsupportedLayer", err)
	}
}
