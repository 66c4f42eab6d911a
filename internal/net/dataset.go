package net

import (
	"golang.org/x/exp/rand"
)

// Dataset holds training samples and their targets row by row.
type Dataset struct {
	X [][]float64
	Y [][]float64
}

// Batch is a contiguous slice of a Dataset.
type Batch struct {
	X [][]float64
	Y [][]float64
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.X)
}

// Batches splits the dataset into consecutive batches of at most size rows.
func (d *Dataset) Batches(size int) []Batch {
	var batches []Batch
	for start := 0; start < len(d.X); start += size {
		end := min(start+size, len(d.X))
		batches = append(batches, Batch{X: d.X[start:end], Y: d.Y[start:end]})
	}
	return batches
}

// Shuffle permutes the rows of d in place.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.X), func(i, j int) {
		d.X[i], d.X[j] = d.X[j], d.X[i]
		d.Y[i], d.Y[j] = d.Y[j], d.Y[i]
	})
}

// StratifiedSplit splits d into a train and a test set, keeping the class
// proportions of the first target column in both. testRatio is the share of
// each class that goes to the test set. Rows within each class are shuffled
// with rng first; the row order of d is left untouched.
func (d *Dataset) StratifiedSplit(testRatio float64, rng *rand.Rand) (train, test *Dataset) {
	train, test = &Dataset{}, &Dataset{}

	classes := make(map[float64][]int)
	var order []float64
	for i, y := range d.Y {
		if _, ok := classes[y[0]]; !ok {
			order = append(order, y[0])
		}
		classes[y[0]] = append(classes[y[0]], i)
	}

	for _, class := range order {
		idx := classes[class]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(float64(len(idx))*testRatio + 0.5)
		for k, i := range idx {
			dst := train
			if k < nTest {
				dst = test
			}
			dst.X = append(dst.X, d.X[i])
			dst.Y = append(dst.Y, d.Y[i])
		}
	}
	return train, test
}
