// Package loss provides loss functions for the fraud classifier.
package loss

import (
	"fmt"
	"math"
)

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// BackwardInPlace writes dL/dyPred into grad.
	BackwardInPlace(yPred, yTrue, grad []float64)

	// Name identifies the loss in saved models.
	Name() string
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes (1/n) * sum((y_pred - y_true)^2)
func (MSE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("MSE: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yPred[i] - yTrue[i]
		sum += diff * diff
	}
	return sum / float64(n)
}

// BackwardInPlace computes (2/n) * (y_pred - y_true)
func (MSE) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("MSE: slices must have same length")
	}

	factor := 2.0 / float64(n)
	for i := 0; i < n; i++ {
		grad[i] = factor * (yPred[i] - yTrue[i])
	}
}

func (MSE) Name() string { return "MSE" }

// bceEps keeps log and division away from 0 and 1.
const bceEps = 1e-7

func clip(p float64) float64 {
	return min(max(p, bceEps), 1-bceEps)
}

// BCELoss (Binary Cross Entropy) loss.
// Requires predictions in (0, 1), i.e. a Sigmoid output layer.
type BCELoss struct{}

// Forward computes -(1/n) * sum(y*log(p) + (1-y)*log(1-p))
func (BCELoss) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCELoss: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := clip(yPred[i])
		sum += yTrue[i]*math.Log(p) + (1-yTrue[i])*math.Log(1-p)
	}
	return -sum / float64(n)
}

// BackwardInPlace computes (p - y) / (p * (1-p) * n)
func (BCELoss) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("BCELoss: slices must have same length")
	}

	for i := 0; i < n; i++ {
		p := clip(yPred[i])
		grad[i] = (p - yTrue[i]) / (p * (1 - p) * float64(n))
	}
}

func (BCELoss) Name() string { return "BCE" }

// ByName returns the loss saved under name.
func ByName(name string) (Loss, error) {
	switch name {
	case "MSE":
		return MSE{}, nil
	case "BCE":
		return BCELoss{}, nil
	}
	return nil, fmt.Errorf("unknown loss %q", name)
}
