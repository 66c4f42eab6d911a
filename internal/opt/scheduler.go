package opt

import "math"

// Scheduler adjusts an optimizer's learning rate once per epoch.
type Scheduler interface {
	// Step is called at the end of each epoch with that epoch's mean loss.
	Step(loss float64)
	LR() float64
}

// StepLR multiplies the learning rate by gamma every stepSize epochs.
type StepLR struct {
	optimizer Optimizer
	stepSize  int
	gamma     float64
	epoch     int
}

func NewStepLR(optimizer Optimizer, stepSize int, gamma float64) *StepLR {
	return &StepLR{optimizer: optimizer, stepSize: stepSize, gamma: gamma}
}

func (s *StepLR) Step(float64) {
	s.epoch++
	if s.stepSize > 0 && s.epoch%s.stepSize == 0 {
		s.optimizer.SetLearningRate(s.optimizer.LearningRate() * s.gamma)
	}
}

func (s *StepLR) LR() float64 { return s.optimizer.LearningRate() }

// ReduceLROnPlateau reduces the learning rate when the loss has stopped improving.
type ReduceLROnPlateau struct {
	optimizer Optimizer
	factor    float64
	patience  int
	threshold float64
	minLR     float64

	bestLoss     float64
	numBadEpochs int
}

func NewReduceLROnPlateau(optimizer Optimizer, factor float64, patience int, threshold, minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		optimizer: optimizer,
		factor:    factor,
		patience:  patience,
		threshold: threshold,
		minLR:     minLR,
		bestLoss:  math.MaxFloat64,
	}
}

func (s *ReduceLROnPlateau) Step(loss float64) {
	if loss < s.bestLoss-s.threshold {
		s.bestLoss = loss
		s.numBadEpochs = 0
		return
	}
	s.numBadEpochs++
	if s.numBadEpochs >= s.patience {
		s.optimizer.SetLearningRate(max(s.optimizer.LearningRate()*s.factor, s.minLR))
		s.numBadEpochs = 0
	}
}

func (s *ReduceLROnPlateau) LR() float64 { return s.optimizer.LearningRate() }
