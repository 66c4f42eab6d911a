// Package layer provides the dense layer used by the fraud classifier.
package layer

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/FlavioCFOliveira/resafraud/internal/activations"
)

// Layer is a neural network layer.
//
// Backward adds into the layer's gradient buffers so a batch can be
// accumulated; callers reset them with ZeroGrad before each batch.
type Layer interface {
	Forward(x []float64) []float64
	Backward(grad []float64) []float64
	Params() []float64
	SetParams([]float64)
	Gradients() []float64
	ZeroGrad()
	InSize() int
	OutSize() int
}

// Dense is a fully connected layer.
type Dense struct {
	// Row-major: weight for output o, input i is at weights[o*inSize+i].
	weights []float64
	biases  []float64
	act     activations.Activation
	inSize  int
	outSize int

	inputBuf  []float64
	preActBuf []float64
	outputBuf []float64
	dzBuf     []float64
	gradWBuf  []float64
	gradBBuf  []float64
	gradInBuf []float64
}

// NewDense creates a dense layer with Xavier/Glorot initialization drawn from rng.
func NewDense(in, out int, act activations.Activation, rng *rand.Rand) *Dense {
	d := newDense(in, out, act)

	scale := math.Sqrt(2.0 / float64(in+out))
	for i := range d.weights {
		d.weights[i] = rng.Float64()*2*scale - scale
	}
	for i := range d.biases {
		d.biases[i] = rng.Float64()*0.2 - 0.1
	}
	return d
}

// NewDenseWithParams creates a dense layer holding params, as returned by Params.
func NewDenseWithParams(in, out int, act activations.Activation, params []float64) *Dense {
	d := newDense(in, out, act)
	d.SetParams(params)
	return d
}

func newDense(in, out int, act activations.Activation) *Dense {
	return &Dense{
		weights:   make([]float64, out*in),
		biases:    make([]float64, out),
		act:       act,
		inSize:    in,
		outSize:   out,
		inputBuf:  make([]float64, in),
		preActBuf: make([]float64, out),
		outputBuf: make([]float64, out),
		dzBuf:     make([]float64, out),
		gradWBuf:  make([]float64, out*in),
		gradBBuf:  make([]float64, out),
		gradInBuf: make([]float64, in),
	}
}

// Forward computes act(Wx + b). The returned slice is reused by the next call.
func (d *Dense) Forward(x []float64) []float64 {
	copy(d.inputBuf, x)

	for o := 0; o < d.outSize; o++ {
		sum := d.biases[o]
		base := o * d.inSize
		for i := 0; i < d.inSize; i++ {
			sum += d.weights[base+i] * d.inputBuf[i]
		}
		d.preActBuf[o] = sum
		d.outputBuf[o] = d.act.Activate(sum)
	}
	return d.outputBuf
}

// Backward accumulates weight and bias gradients for the last Forward input
// and returns the gradient with respect to that input.
func (d *Dense) Backward(grad []float64) []float64 {
	for o := 0; o < d.outSize; o++ {
		dz := grad[o] * d.act.Derivative(d.preActBuf[o])
		d.dzBuf[o] = dz
		d.gradBBuf[o] += dz

		base := o * d.inSize
		for i := 0; i < d.inSize; i++ {
			d.gradWBuf[base+i] += dz * d.inputBuf[i]
		}
	}

	for i := 0; i < d.inSize; i++ {
		sum := 0.0
		for o := 0; o < d.outSize; o++ {
			sum += d.dzBuf[o] * d.weights[o*d.inSize+i]
		}
		d.gradInBuf[i] = sum
	}
	return d.gradInBuf
}

// ZeroGrad clears the accumulated gradients.
func (d *Dense) ZeroGrad() {
	clear(d.gradWBuf)
	clear(d.gradBBuf)
}

// Params returns weights followed by biases (copy).
func (d *Dense) Params() []float64 {
	params := make([]float64, 0, len(d.weights)+len(d.biases))
	params = append(params, d.weights...)
	return append(params, d.biases...)
}

// SetParams copies weights and biases from a slice laid out like Params.
func (d *Dense) SetParams(params []float64) {
	copy(d.weights, params[:len(d.weights)])
	copy(d.biases, params[len(d.weights):])
}

// Gradients returns weight gradients followed by bias gradients (copy).
func (d *Dense) Gradients() []float64 {
	grads := make([]float64, 0, len(d.gradWBuf)+len(d.gradBBuf))
	grads = append(grads, d.gradWBuf...)
	return append(grads, d.gradBBuf...)
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}
