// Package features turns cleaned reservation rows into model inputs. The
// feature set is the field set collected by the prediction form, so a model
// trained on the table can score form submissions.
package features

import (
	"fmt"
	"strconv"

	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/encoding"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// Kind tells how a column becomes a number.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// Feature is one model input column.
type Feature struct {
	Name string
	Kind Kind
}

// Features lists the model inputs in vector order.
var Features = []Feature{
	{reservation.ColPlaces, Numeric},
	{reservation.ColTravellers, Numeric},
	{reservation.ColStatus, Categorical},
	{reservation.ColReminderSent, Categorical},
	{reservation.ColFlightFrequency, Numeric},
	{reservation.ColHour, Numeric},
	{reservation.ColDayOfWeek, Numeric},
	{reservation.ColMonth, Numeric},
	{reservation.ColAccountAgeDays, Numeric},
	{reservation.ColPaymentDelayDays, Numeric},
	{reservation.ColAmount, Numeric},
	{reservation.ColPaymentFailures, Numeric},
	{reservation.ColPaymentStatus, Categorical},
	{reservation.ColCountry, Categorical},
	{reservation.ColCity, Categorical},
	{reservation.ColNewsletter, Categorical},
	{reservation.ColSatisfaction, Numeric},
	{reservation.ColPriorCancellations, Numeric},
	{reservation.ColModifications, Numeric},
	{reservation.ColPaymentAttempts, Numeric},
	{reservation.ColEmailDomain, Categorical},
	{reservation.ColSuspiciousDomain, Categorical},
}

// Names returns the feature column names in vector order.
func Names() []string {
	names := make([]string, len(Features))
	for i, f := range Features {
		names[i] = f.Name
	}
	return names
}

// FitEncoders fits one label encoder per categorical feature on t.
func FitEncoders(t *dataset.Table) (encoding.Encoders, error) {
	enc := make(encoding.Encoders)
	for _, f := range Features {
		if f.Kind != Categorical {
			continue
		}
		values, err := t.Column(f.Name)
		if err != nil {
			return nil, err
		}
		e := &encoding.LabelEncoder{}
		e.Fit(values)
		enc[f.Name] = e
	}
	return enc, nil
}

// Matrix builds the unscaled feature matrix and the label vector of t.
func Matrix(t *dataset.Table, enc encoding.Encoders) ([][]float64, []float64, error) {
	idx, err := t.Require(Names()...)
	if err != nil {
		return nil, nil, err
	}
	labelIdx, err := t.Require(reservation.ColLabel)
	if err != nil {
		return nil, nil, err
	}

	x := make([][]float64, t.Len())
	y := make([]float64, t.Len())
	values := make(map[string]string, len(Features))
	for i, row := range t.Rows {
		for k, f := range Features {
			values[f.Name] = row[idx[k]]
		}
		x[i], err = Vector(values, enc)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		y[i], err = strconv.ParseFloat(row[labelIdx[0]], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d column %s: %w", i+1, reservation.ColLabel, err)
		}
	}
	return x, y, nil
}

// Vector encodes one row given as column → value.
func Vector(values map[string]string, enc encoding.Encoders) ([]float64, error) {
	x := make([]float64, len(Features))
	for k, f := range Features {
		v, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("missing feature %q", f.Name)
		}
		switch f.Kind {
		case Categorical:
			e, ok := enc[f.Name]
			if !ok {
				return nil, fmt.Errorf("no encoder for %q", f.Name)
			}
			x[k] = float64(e.Encode(v))
		default:
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", f.Name, err)
			}
			x[k] = n
		}
	}
	return x, nil
}
