// Package net provides benchmarks for neural network training.
package net

import (
	"testing"

	"golang.org/x/exp/rand"
)

// fillRandom fills a slice with random values.
func fillRandom(rng *rand.Rand, slice []float64) {
	for i := range slice {
		slice[i] = rng.Float64()
	}
}

func benchBatch(rng *rand.Rand, n, inputs int) ([][]float64, [][]float64) {
	x := make([][]float64, n)
	y := make([][]float64, n)
	for i := range x {
		x[i] = make([]float64, inputs)
		fillRandom(rng, x[i])
		y[i] = []float64{float64(rng.Intn(2))}
	}
	return x, y
}

// BenchmarkNetworkPredict benchmarks scoring one row with the classifier shape.
func BenchmarkNetworkPredict(b *testing.B) {
	network := newTestNetwork(1, 22, 16, 8, 1)
	input := make([]float64, 22)
	fillRandom(rand.New(rand.NewSource(2)), input)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		network.Predict(input)
	}
}

// BenchmarkNetworkTrainBatch benchmarks one optimizer step on a batch of 32.
func BenchmarkNetworkTrainBatch(b *testing.B) {
	network := newTestNetwork(1, 22, 16, 8, 1)
	x, y := benchBatch(rand.New(rand.NewSource(3)), 32, 22)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		network.TrainBatch(x, y)
	}
}

// BenchmarkNetworkEpoch benchmarks a full epoch over 4000 rows.
func BenchmarkNetworkEpoch(b *testing.B) {
	network := newTestNetwork(1, 22, 16, 8, 1)
	x, y := benchBatch(rand.New(rand.NewSource(4)), 4000, 22)
	ds := &Dataset{X: x, Y: y}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, batch := range ds.Batches(32) {
			network.TrainBatch(batch.X, batch.Y)
		}
	}
}
