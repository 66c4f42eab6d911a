// Package report computes the exploratory summary of a reservation table:
// class balance, crosstabs against the label, descriptive statistics and the
// correlation matrix of the numeric columns.
package report

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/features"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// Crosstab counts rows per category value and label.
type Crosstab struct {
	Column string
	Values []string
	// Counts[i] holds the legit and fraud counts of Values[i].
	Counts [][2]int
}

// Describe are the descriptive statistics of one numeric column.
type Describe struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Median float64
	Q75    float64
	Max    float64
	// LabelMean holds the legit and fraud means.
	LabelMean [2]float64
}

// Summary is the result of Analyze.
type Summary struct {
	Total     int
	Fraud     int
	FraudRate float64

	Status        Crosstab
	PaymentStatus Crosstab

	Suspicious          int
	SuspiciousFraud     int
	SuspiciousFraudRate float64

	Numeric []Describe

	// Correlation between NumericColumns, the label included as last column.
	CorrelationColumns []string
	Correlation        *mat.SymDense
}

// NumericColumns are the columns described and correlated, in report order.
func NumericColumns() []string {
	var cols []string
	for _, f := range features.Features {
		if f.Kind == features.Numeric {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// Analyze summarises t, which may be the raw or the cleaned table.
func Analyze(t *dataset.Table) (*Summary, error) {
	if t.Len() < 2 {
		return nil, fmt.Errorf("need at least 2 rows, got %d", t.Len())
	}
	numeric := NumericColumns()
	cols := append([]string{reservation.ColLabel, reservation.ColStatus, reservation.ColPaymentStatus, reservation.ColSuspiciousDomain}, numeric...)
	idx, err := t.Require(cols...)
	if err != nil {
		return nil, err
	}
	labelIdx, statusIdx, paymentIdx, suspiciousIdx := idx[0], idx[1], idx[2], idx[3]
	numIdx := idx[4:]

	s := &Summary{Total: t.Len()}
	labels := make([]int, t.Len())
	// Column-major so each column is a contiguous slice for gonum stat.
	values := make([][]float64, len(numeric))
	for j := range values {
		values[j] = make([]float64, t.Len())
	}

	for i, row := range t.Rows {
		label, err := strconv.Atoi(row[labelIdx])
		if err != nil || (label != 0 && label != 1) {
			return nil, fmt.Errorf("row %d: invalid label %q", i+1, row[labelIdx])
		}
		labels[i] = label
		s.Fraud += label

		suspicious, err := dataset.ParseBool(row[suspiciousIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", i+1, reservation.ColSuspiciousDomain, err)
		}
		if suspicious {
			s.Suspicious++
			s.SuspiciousFraud += label
		}

		for j, k := range numIdx {
			v, err := strconv.ParseFloat(row[k], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, numeric[j], err)
			}
			values[j][i] = v
		}
	}

	s.FraudRate = float64(s.Fraud) / float64(s.Total)
	if s.Suspicious > 0 {
		s.SuspiciousFraudRate = float64(s.SuspiciousFraud) / float64(s.Suspicious)
	}
	s.Status = crosstab(t, reservation.ColStatus, statusIdx, labels)
	s.PaymentStatus = crosstab(t, reservation.ColPaymentStatus, paymentIdx, labels)

	for j, name := range numeric {
		s.Numeric = append(s.Numeric, describe(name, values[j], labels))
	}

	s.CorrelationColumns = append(slices.Clone(numeric), reservation.ColLabel)
	s.Correlation = correlation(values, labels)
	return s, nil
}

func crosstab(t *dataset.Table, name string, col int, labels []int) Crosstab {
	counts := make(map[string]*[2]int)
	for i, row := range t.Rows {
		c, ok := counts[row[col]]
		if !ok {
			c = &[2]int{}
			counts[row[col]] = c
		}
		c[labels[i]]++
	}

	ct := Crosstab{Column: name}
	for v := range counts {
		ct.Values = append(ct.Values, v)
	}
	sort.Strings(ct.Values)
	for _, v := range ct.Values {
		ct.Counts = append(ct.Counts, *counts[v])
	}
	return ct
}

func describe(name string, x []float64, labels []int) Describe {
	sorted := slices.Clone(x)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(x, nil)
	d := Describe{
		Column: name,
		Count:  len(x),
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}

	var sums [2]float64
	var counts [2]int
	for i, v := range x {
		sums[labels[i]] += v
		counts[labels[i]]++
	}
	for l := range sums {
		if counts[l] > 0 {
			d.LabelMean[l] = sums[l] / float64(counts[l])
		}
	}
	return d
}

// correlation returns the Pearson correlation of the columns and the label.
// Constant columns yield NaN rows.
func correlation(values [][]float64, labels []int) *mat.SymDense {
	rows := len(labels)
	cols := len(values) + 1
	data := mat.NewDense(rows, cols, nil)
	for j, col := range values {
		for i, v := range col {
			data.Set(i, j, v)
		}
	}
	for i, l := range labels {
		data.Set(i, cols-1, float64(l))
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, data, nil)
	return &corr
}
