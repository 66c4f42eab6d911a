// Package activations provides the activation functions used by the fraud
// classifier's dense layers.
package activations

import (
	"fmt"
	"math"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) at the pre-activation value x
	Derivative(x float64) float64

	// Name identifies the function in saved models.
	Name() string
}

// ReLU activation function.
type ReLU struct{}

func (ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func (ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (ReLU) Name() string { return "ReLU" }

// Sigmoid squashes to (0, 1); used on the output neuron so the network emits
// a fraud probability.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (Sigmoid) Derivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

func (Sigmoid) Name() string { return "Sigmoid" }

// Tanh activation function.
type Tanh struct{}

func (Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (Tanh) Derivative(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

func (Tanh) Name() string { return "Tanh" }

// LeakyReLU keeps a small slope for x <= 0.
type LeakyReLU struct {
	Alpha float64
}

// NewLeakyReLU creates a LeakyReLU with the given negative slope.
func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

func (l *LeakyReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return l.Alpha * x
}

func (l *LeakyReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return l.Alpha
}

func (l *LeakyReLU) Name() string { return "LeakyReLU" }

// Linear is the identity.
type Linear struct{}

func (Linear) Activate(x float64) float64   { return x }
func (Linear) Derivative(x float64) float64 { return 1 }
func (Linear) Name() string                 { return "Linear" }

// ByName returns the activation saved under name.
func ByName(name string) (Activation, error) {
	switch name {
	case "ReLU":
		return ReLU{}, nil
	case "Sigmoid":
		return Sigmoid{}, nil
	case "Tanh":
		return Tanh{}, nil
	case "LeakyReLU":
		return NewLeakyReLU(0.01), nil
	case "Linear":
		return Linear{}, nil
	}
	return nil, fmt.Errorf("unknown activation %q", name)
}
