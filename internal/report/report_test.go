package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/generator"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

func generatedTable(t *testing.T) *dataset.Table {
	t.Helper()
	records, _, err := generator.Build(context.Background(), generator.Options{
		Total:      5000,
		FraudRatio: 0.15,
		Seed:       42,
		Now:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	return dataset.FromRecords(records)
}

func describeOf(s *Summary, column string) Describe {
	for _, d := range s.Numeric {
		if d.Column == column {
			return d
		}
	}
	return Describe{}
}

// TestAnalyzeGenerated tests the summary of a generated dataset.
func TestAnalyzeGenerated(t *testing.T) {
	s, err := Analyze(generatedTable(t))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if s.Total != 5000 || s.Fraud != 750 {
		t.Errorf("total/fraud = %d/%d, want 5000/750", s.Total, s.Fraud)
	}
	if math.Abs(s.FraudRate-0.15) > 1e-12 {
		t.Errorf("fraud rate = %v", s.FraudRate)
	}

	// Every failed payment comes from a fraud row.
	for i, v := range s.PaymentStatus.Values {
		if v == reservation.PaymentFailed && s.PaymentStatus.Counts[i][0] != 0 {
			t.Errorf("legit rows with failed payment: %d", s.PaymentStatus.Counts[i][0])
		}
	}

	var statusTotal int
	for _, c := range s.Status.Counts {
		statusTotal += c[0] + c[1]
	}
	if statusTotal != 5000 {
		t.Errorf("status crosstab total = %d", statusTotal)
	}

	if s.SuspiciousFraudRate < 0.5 {
		t.Errorf("suspicious fraud rate = %v, want > 0.5", s.SuspiciousFraudRate)
	}

	cancellations := describeOf(s, reservation.ColPriorCancellations)
	if cancellations.LabelMean[1] <= cancellations.LabelMean[0] {
		t.Errorf("fraud cancellation mean %v <= legit %v", cancellations.LabelMean[1], cancellations.LabelMean[0])
	}
	if age := describeOf(s, reservation.ColAccountAgeDays); age.Min < 0 || age.Max > 30 {
		t.Errorf("account age range [%v, %v]", age.Min, age.Max)
	}
	for _, d := range s.Numeric {
		if !(d.Min <= d.Q25 && d.Q25 <= d.Median && d.Median <= d.Q75 && d.Q75 <= d.Max) {
			t.Errorf("%s quantiles out of order: %+v", d.Column, d)
		}
	}

	last := len(s.CorrelationColumns) - 1
	if s.CorrelationColumns[last] != reservation.ColLabel {
		t.Fatalf("last correlation column = %s", s.CorrelationColumns[last])
	}
	if got := s.Correlation.At(last, last); math.Abs(got-1) > 1e-12 {
		t.Errorf("label self-correlation = %v", got)
	}
	for j, name := range s.CorrelationColumns {
		if name == reservation.ColPaymentFailures && s.Correlation.At(j, last) <= 0 {
			t.Errorf("payment failures correlation = %v, want > 0", s.Correlation.At(j, last))
		}
	}
}

// TestAnalyzeCleanedBooleans tests that both boolean spellings are accepted.
func TestAnalyzeCleanedBooleans(t *testing.T) {
	table := generatedTable(t)
	raw, err := Analyze(table)
	if err != nil {
		t.Fatal(err)
	}

	j := table.Index(reservation.ColSuspiciousDomain)
	for _, row := range table.Rows {
		b, _ := dataset.ParseBool(row[j])
		row[j] = dataset.FormatBool(b)
	}
	cleaned, err := Analyze(table)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Suspicious != cleaned.Suspicious {
		t.Errorf("suspicious = %d vs %d", raw.Suspicious, cleaned.Suspicious)
	}
}

// TestAnalyzeErrors tests schema and value errors.
func TestAnalyzeErrors(t *testing.T) {
	table := generatedTable(t)
	table.Drop(reservation.ColAmount)
	if _, err := Analyze(table); !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}

	table = generatedTable(t)
	table.Rows[3][table.Index(reservation.ColLabel)] = "2"
	if _, err := Analyze(table); err == nil {
		t.Error("expected error for label 2")
	}

	if _, err := Analyze(&dataset.Table{Header: reservation.Columns}); err == nil {
		t.Error("expected error for empty table")
	}
}

// TestWrite tests the text rendering.
func TestWrite(t *testing.T) {
	s, err := Analyze(generatedTable(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, s); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"rows: 5000", "fraud: 750 (15.00%)", reservation.StatusPending, reservation.ColAccountAgeDays, "correlation with is_fraud"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

// TestWriteCorrelation tests the CSV shape.
func TestWriteCorrelation(t *testing.T) {
	s, err := Analyze(generatedTable(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCorrelation(&buf, s); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	n := len(s.CorrelationColumns)
	if len(rows) != n+1 || len(rows[0]) != n+1 {
		t.Fatalf("shape = %dx%d, want %dx%d", len(rows), len(rows[0]), n+1, n+1)
	}
	if rows[1][1] != "1.0000" {
		t.Errorf("diagonal = %s, want 1.0000", rows[1][1])
	}
}
