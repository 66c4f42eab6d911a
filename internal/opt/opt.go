// Package opt provides optimization algorithms.
package opt

import "math"

// Optimizer updates parameters in place from their gradients. Optimizers that
// keep per-parameter state identify the parameter group with key (the layer
// index).
type Optimizer interface {
	Update(key int, params, gradients []float64)

	// Name identifies the optimizer in saved models.
	Name() string

	// LearningRate returns the current learning rate.
	LearningRate() float64
	SetLearningRate(lr float64)
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LR float64
}

// Update sets params = params - lr * gradients
func (s *SGD) Update(_ int, params, gradients []float64) {
	for i := range params {
		params[i] -= s.LR * gradients[i]
	}
}

func (s *SGD) Name() string               { return "SGD" }
func (s *SGD) LearningRate() float64      { return s.LR }
func (s *SGD) SetLearningRate(lr float64) { s.LR = lr }

// Adam optimizer with bias-corrected first and second moment estimates.
type Adam struct {
	LR      float64
	Beta1   float64 // Exponential decay rate for first moment
	Beta2   float64 // Exponential decay rate for second moment
	Epsilon float64

	m map[int][]float64
	v map[int][]float64
	t map[int]int
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LR:      learningRate,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-8,
		m:       make(map[int][]float64),
		v:       make(map[int][]float64),
		t:       make(map[int]int),
	}
}

// Update applies one Adam step to the parameter group key.
func (a *Adam) Update(key int, params, gradients []float64) {
	m, ok := a.m[key]
	if !ok || len(m) != len(params) {
		m = make([]float64, len(params))
		a.m[key] = m
		a.v[key] = make([]float64, len(params))
		a.t[key] = 0
	}
	v := a.v[key]
	a.t[key]++
	step := float64(a.t[key])

	c1 := 1 - math.Pow(a.Beta1, step)
	c2 := 1 - math.Pow(a.Beta2, step)
	for i, g := range gradients {
		m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
		v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
		mHat := m[i] / c1
		vHat := v[i] / c2
		params[i] -= a.LR * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}

func (a *Adam) Name() string               { return "Adam" }
func (a *Adam) LearningRate() float64      { return a.LR }
func (a *Adam) SetLearningRate(lr float64) { a.LR = lr }

// ByName returns a fresh optimizer saved under name.
func ByName(name string, lr float64) Optimizer {
	if name == "Adam" {
		return NewAdam(lr)
	}
	return &SGD{LR: lr}
}
