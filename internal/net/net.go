// Package net provides the feed-forward network used as the fraud classifier.
package net

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/resafraud/internal/activations"
	"github.com/FlavioCFOliveira/resafraud/internal/layer"
	"github.com/FlavioCFOliveira/resafraud/internal/loss"
	"github.com/FlavioCFOliveira/resafraud/internal/opt"
)

// ErrUnsupportedLayer is returned when a network holding a layer other than
// Dense is saved, or a saved model names an unknown layer type.
var ErrUnsupportedLayer = errors.New("unsupported layer type")

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer

	// Reused by every training step.
	lossGradBuf []float64
}

// New creates a new neural network with the given layers.
func New(layers []layer.Layer, loss loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   loss,
		opt:    optimizer,
	}
}

// Forward performs a forward pass through all layers. The returned slice
// belongs to the last layer and is overwritten by the next call.
func (n *Network) Forward(x []float64) []float64 {
	curr := x
	for i := range n.layers {
		curr = n.layers[i].Forward(curr)
	}
	return curr
}

// Backward performs a backward pass through all layers.
func (n *Network) Backward(grad []float64) []float64 {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		curr = n.layers[i].Backward(curr)
	}
	return curr
}

// Predict returns the first output of a forward pass, the fraud probability
// for a Sigmoid-terminated network.
func (n *Network) Predict(x []float64) float64 {
	return n.Forward(x)[0]
}

// Step applies the optimizer to every layer using its accumulated gradients
// multiplied by scale.
func (n *Network) Step(scale float64) {
	for i, l := range n.layers {
		grads := l.Gradients()
		if scale != 1 {
			for j := range grads {
				grads[j] *= scale
			}
		}
		params := l.Params()
		n.opt.Update(i, params, grads)
		l.SetParams(params)
	}
}

// ZeroGrad clears the gradients of every layer.
func (n *Network) ZeroGrad() {
	for _, l := range n.layers {
		l.ZeroGrad()
	}
}

// TrainBatch accumulates gradients over the batch, averages them and applies
// one optimizer step. It returns the mean loss of the batch.
func (n *Network) TrainBatch(batchX, batchY [][]float64) float64 {
	if len(batchX) == 0 {
		return 0
	}
	batchSize := float64(len(batchX))

	n.ZeroGrad()
	var totalLoss float64
	for i := range batchX {
		yPred := n.Forward(batchX[i])
		totalLoss += n.loss.Forward(yPred, batchY[i])

		if cap(n.lossGradBuf) < len(yPred) {
			n.lossGradBuf = make([]float64, len(yPred))
		}
		grad := n.lossGradBuf[:len(yPred)]
		n.loss.BackwardInPlace(yPred, batchY[i], grad)
		n.Backward(grad)
	}

	n.Step(1 / batchSize)
	return totalLoss / batchSize
}

// Evaluate returns the mean loss over x without updating parameters.
func (n *Network) Evaluate(x, y [][]float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var total float64
	for i := range x {
		total += n.loss.Forward(n.Forward(x[i]), y[i])
	}
	return total / float64(len(x))
}

// Fit trains for up to epochs passes over ds, shuffling it with shuffle
// before every epoch. It stops early when a callback implementing Stopper
// asks to, or when ctx is done. The mean training loss of every completed
// epoch is returned.
func (n *Network) Fit(ctx context.Context, ds *Dataset, epochs, batchSize int, shuffle func(*Dataset), callbacks ...Callback) ([]float64, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	for _, c := range callbacks {
		c.OnTrainBegin(n)
	}
	defer func() {
		for _, c := range callbacks {
			c.OnTrainEnd(n)
		}
	}()

	var history []float64
	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		if shuffle != nil {
			shuffle(ds)
		}
		for _, c := range callbacks {
			c.OnEpochBegin(epoch, n)
		}

		var total float64
		batches := ds.Batches(batchSize)
		for b, batch := range batches {
			for _, c := range callbacks {
				c.OnBatchBegin(b, n)
			}
			l := n.TrainBatch(batch.X, batch.Y)
			total += l * float64(len(batch.X))
			for _, c := range callbacks {
				c.OnBatchEnd(b, l, n)
			}
		}
		epochLoss := total / float64(max(ds.Len(), 1))
		history = append(history, epochLoss)

		stop := false
		for _, c := range callbacks {
			c.OnEpochEnd(epoch, epochLoss, n)
			if s, ok := c.(Stopper); ok && s.ShouldStop() {
				stop = true
			}
		}
		if stop {
			break
		}
	}
	return history, nil
}

// Params returns all network parameters flattened (copy).
func (n *Network) Params() []float64 {
	var params []float64
	for _, l := range n.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// Gradients returns all network gradients flattened (copy).
func (n *Network) Gradients() []float64 {
	var gradients []float64
	for _, l := range n.layers {
		gradients = append(gradients, l.Gradients()...)
	}
	return gradients
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Loss returns the network's loss function.
func (n *Network) Loss() loss.Loss {
	return n.loss
}

// Optimizer returns the network's optimizer.
func (n *Network) Optimizer() opt.Optimizer {
	return n.opt
}

// Save saves the network to a file using gob encoding.
// The optimizer state is not saved, only its name and learning rate.
func (n *Network) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := n.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Load loads a network from a file written by Save.
func Load(filename string) (*Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// header precedes the layer configs in the gob stream.
type header struct {
	Layers       int
	Loss         string
	Optimizer    string
	LearningRate float64
}

// LayerConfig holds the configuration needed to reconstruct a layer.
type LayerConfig struct {
	Type       string
	InSize     int
	OutSize    int
	Activation string
	Params     []float64
}

// Encode writes the network to w using gob encoding.
func (n *Network) Encode(w io.Writer) error {
	encoder := gob.NewEncoder(w)

	h := header{
		Layers:       len(n.layers),
		Loss:         n.loss.Name(),
		Optimizer:    n.opt.Name(),
		LearningRate: n.opt.LearningRate(),
	}
	if err := encoder.Encode(h); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	for i, l := range n.layers {
		cfg, err := ExtractLayerConfig(l)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode layer %d: %w", i, err)
		}
	}
	return nil
}

// Decode reads a network written by Encode.
func Decode(r io.Reader) (*Network, error) {
	decoder := gob.NewDecoder(r)

	var h header
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	layers := make([]layer.Layer, 0, h.Layers)
	for i := 0; i < h.Layers; i++ {
		var cfg LayerConfig
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read layer %d: %w", i, err)
		}
		l, err := cfg.CreateLayer()
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}

	lossFn, err := loss.ByName(h.Loss)
	if err != nil {
		return nil, err
	}
	return New(layers, lossFn, opt.ByName(h.Optimizer, h.LearningRate)), nil
}

// ExtractLayerConfig extracts the configuration from a layer.
func ExtractLayerConfig(l layer.Layer) (LayerConfig, error) {
	dense, ok := l.(*layer.Dense)
	if !ok {
		return LayerConfig{}, fmt.Errorf("%w: %T", ErrUnsupportedLayer, l)
	}
	return LayerConfig{
		Type:       "Dense",
		InSize:     dense.InSize(),
		OutSize:    dense.OutSize(),
		Activation: dense.Activation().Name(),
		Params:     dense.Params(),
	}, nil
}

// CreateLayer creates a new layer from the configuration.
func (c *LayerConfig) CreateLayer() (layer.Layer, error) {
	if c.Type != "Dense" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLayer, c.Type)
	}
	if want := c.InSize*c.OutSize + c.OutSize; len(c.Params) != want {
		return nil, fmt.Errorf("dense %dx%d: got %d params, want %d", c.InSize, c.OutSize, len(c.Params), want)
	}
	act, err := activations.ByName(c.Activation)
	if err != nil {
		return nil, err
	}
	return layer.NewDenseWithParams(c.InSize, c.OutSize, act, c.Params), nil
}
