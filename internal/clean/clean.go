// Package clean turns the raw reservation table into the table used for
// training: the reservation timestamp is decomposed into calendar columns and
// boolean columns are normalised.
package clean

import (
	"fmt"
	"strconv"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// BoolColumns are rewritten as True/False.
var BoolColumns = []string{
	reservation.ColReminderSent,
	reservation.ColNewsletter,
	reservation.ColSuspiciousDomain,
}

// Table cleans t in place.
func Table(t *dataset.Table) error {
	if err := decomposeTimestamp(t); err != nil {
		return err
	}
	for _, name := range BoolColumns {
		if err := normaliseBool(t, name); err != nil {
			return err
		}
	}
	return nil
}

func decomposeTimestamp(t *dataset.Table) error {
	raw, err := t.Column(reservation.ColReservedAt)
	if err != nil {
		return err
	}

	n := len(raw)
	dates := make([]string, n)
	times := make([]string, n)
	hours := make([]string, n)
	months := make([]string, n)
	weekdays := make([]string, n)
	for i, s := range raw {
		ts, err := time.Parse(reservation.TimeLayout, s)
		if err != nil {
			return fmt.Errorf("row %d column %s: %w", i+1, reservation.ColReservedAt, err)
		}
		dates[i] = ts.Format(time.DateOnly)
		times[i] = ts.Format(time.TimeOnly)
		hours[i] = strconv.Itoa(ts.Hour())
		months[i] = strconv.Itoa(int(ts.Month()))
		weekdays[i] = strconv.Itoa(reservation.Weekday(ts))
	}

	for _, col := range []struct {
		name   string
		values []string
	}{
		{reservation.ColMonth, months},
		{reservation.ColHour, hours},
		{reservation.ColDayOfWeek, weekdays},
		{reservation.ColDate, dates},
		{reservation.ColTime, times},
	} {
		if err := t.Set(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}

func normaliseBool(t *dataset.Table, name string) error {
	values, err := t.Column(name)
	if err != nil {
		return err
	}
	for i, s := range values {
		b, err := dataset.ParseBool(s)
		if err != nil {
			return fmt.Errorf("row %d column %s: %w", i+1, name, err)
		}
		values[i] = dataset.FormatBool(b)
	}
	return t.Set(name, values)
}

// File reads the raw dataset at src, cleans it and writes it to dst. Every
// row of src is parsed as a reservation record first, so a file with a
// foreign header or malformed values is rejected before anything is written.
func File(src, dst string) (*dataset.Table, error) {
	records, err := dataset.LoadRecords(src)
	if err != nil {
		return nil, err
	}
	t := dataset.FromRecords(records)
	if err := Table(t); err != nil {
		return nil, err
	}
	if err := dataset.SaveTable(dst, t); err != nil {
		return nil, err
	}
	return t, nil
}
