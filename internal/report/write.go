package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// Write renders s as plain text tables.
func Write(w io.Writer, s *Summary) error {
	fmt.Fprintf(w, "rows: %d\nfraud: %d (%.2f%%)\nlegit: %d\n\n", s.Total, s.Fraud, 100*s.FraudRate, s.Total-s.Fraud)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ct := range []Crosstab{s.Status, s.PaymentStatus} {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", ct.Column, reservation.Legit, reservation.Fraud)
		for i, v := range ct.Values {
			fmt.Fprintf(tw, "%s\t%d\t%d\t\n", v, ct.Counts[i][0], ct.Counts[i][1])
		}
		fmt.Fprintln(tw, "\t\t\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "suspicious email domains: %d, of which fraud: %d (%.2f%%)\n\n",
		s.Suspicious, s.SuspiciousFraud, 100*s.SuspiciousFraudRate)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\tmean legit\tmean fraud\t")
	for _, d := range s.Numeric {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t\n",
			d.Column, d.Count, d.Mean, d.Std, d.Min, d.Q25, d.Median, d.Q75, d.Max, d.LabelMean[0], d.LabelMean[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\ncorrelation with %s:\n", reservation.ColLabel)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	last := len(s.CorrelationColumns) - 1
	for j, name := range s.CorrelationColumns[:last] {
		fmt.Fprintf(tw, "%s\t%+.3f\t\n", name, s.Correlation.At(j, last))
	}
	return tw.Flush()
}

// WriteCorrelation writes the correlation matrix as a CSV with a header row
// and the column name leading each line.
func WriteCorrelation(w io.Writer, s *Summary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{""}, s.CorrelationColumns...)); err != nil {
		return err
	}
	for i, name := range s.CorrelationColumns {
		row := []string{name}
		for j := range s.CorrelationColumns {
			row = append(row, strconv.FormatFloat(s.Correlation.At(i, j), 'f', 4, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCorrelation writes the correlation CSV to filename.
func SaveCorrelation(filename string, s *Summary) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteCorrelation(file, s); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
