// Package predict scores single reservations with a trained bundle and
// serves the scoring form over HTTP.
package predict

import (
	"sync"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/metrics"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
	"github.com/FlavioCFOliveira/resafraud/internal/train"
)

// DefaultThreshold is the probability above which a reservation is flagged.
const DefaultThreshold = 0.5

// Prediction is the verdict for one Input.
type Prediction struct {
	Probability float64 `json:"probability"`
	Fraud       bool    `json:"fraud"`
	Verdict     string  `json:"verdict"`
}

// Predictor scores inputs against a bundle. It is safe for concurrent use.
type Predictor struct {
	mu        sync.Mutex
	bundle    *train.Bundle
	threshold float64
}

// NewPredictor wraps bundle with the given decision threshold.
func NewPredictor(bundle *train.Bundle, threshold float64) *Predictor {
	return &Predictor{bundle: bundle, threshold: threshold}
}

// Predict validates in and returns its fraud probability and verdict.
func (p *Predictor) Predict(in Input) (Prediction, error) {
	if err := in.Validate(); err != nil {
		return Prediction{}, err
	}

	start := time.Now()
	p.mu.Lock()
	prob, err := p.bundle.Score(in.Values())
	p.mu.Unlock()
	if err != nil {
		return Prediction{}, err
	}
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	label := reservation.Legit
	if prob > p.threshold {
		label = reservation.Fraud
	}
	metrics.Predictions.WithLabelValues(label.String()).Inc()

	return Prediction{Probability: prob, Fraud: label == reservation.Fraud, Verdict: label.String()}, nil
}
