// Package dataset reads and writes reservation tables as CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// ErrSchemaMismatch is returned when a header does not carry the expected columns.
var ErrSchemaMismatch = errors.New("table schema mismatch")

// FormatBool writes booleans the way the downstream encoders expect them.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool accepts True/False in any case as well as 1/0.
func ParseBool(s string) (bool, error) {
	switch s {
	case "True", "true", "TRUE", "1":
		return true, nil
	case "False", "false", "FALSE", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// WriteRecords writes the header and one row per record.
func WriteRecords(w io.Writer, records []reservation.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reservation.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range records {
		if err := writer.Write(recordRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordRow(r *reservation.Record) []string {
	return []string{
		r.ReservationID,
		r.UserID,
		r.ReservedAt.Format(reservation.TimeLayout),
		strconv.Itoa(r.Places),
		strconv.Itoa(r.Travellers),
		r.Status,
		FormatBool(r.ReminderSent),
		strconv.Itoa(r.FlightFrequency),
		strconv.Itoa(r.Hour),
		strconv.Itoa(r.DayOfWeek),
		strconv.Itoa(r.Month),
		strconv.Itoa(r.AccountAgeDays),
		strconv.Itoa(r.PaymentDelayDays),
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		strconv.Itoa(r.PaymentFailures),
		r.PaymentStatus,
		r.Country,
		r.City,
		FormatBool(r.Newsletter),
		strconv.Itoa(r.Satisfaction),
		strconv.Itoa(r.PriorCancellations),
		strconv.Itoa(r.Modifications),
		strconv.Itoa(r.PaymentAttempts),
		r.EmailDomain,
		flag(r.SuspiciousDomain),
		strconv.Itoa(int(r.Label)),
	}
}

// ReadRecords parses a raw table written by WriteRecords.
func ReadRecords(r io.Reader) ([]reservation.Record, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	if !slices.Equal(rows[0], reservation.Columns) {
		return nil, fmt.Errorf("%w: got %v", ErrSchemaMismatch, rows[0])
	}

	records := make([]reservation.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// fieldParser collects the first parse error so parseRecord can read columns
// in one pass.
type fieldParser struct {
	row []string
	err error
}

func (p *fieldParser) intAt(col int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.row[col])
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", reservation.Columns[col], err)
	}
	return v
}

func (p *fieldParser) floatAt(col int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.row[col], 64)
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", reservation.Columns[col], err)
	}
	return v
}

func (p *fieldParser) boolAt(col int) bool {
	if p.err != nil {
		return false
	}
	v, err := ParseBool(p.row[col])
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", reservation.Columns[col], err)
	}
	return v
}

func (p *fieldParser) timeAt(col int) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	v, err := time.Parse(reservation.TimeLayout, p.row[col])
	if err != nil {
		p.err = fmt.Errorf("column %s: %w", reservation.Columns[col], err)
	}
	return v
}

func parseRecord(row []string) (reservation.Record, error) {
	if len(row) != len(reservation.Columns) {
		return reservation.Record{}, fmt.Errorf("%w: %d fields, want %d", ErrSchemaMismatch, len(row), len(reservation.Columns))
	}
	p := &fieldParser{row: row}
	rec := reservation.Record{
		ReservationID:      row[0],
		UserID:             row[1],
		ReservedAt:         p.timeAt(2),
		Places:             p.intAt(3),
		Travellers:         p.intAt(4),
		Status:             row[5],
		ReminderSent:       p.boolAt(6),
		FlightFrequency:    p.intAt(7),
		Hour:               p.intAt(8),
		DayOfWeek:          p.intAt(9),
		Month:              p.intAt(10),
		AccountAgeDays:     p.intAt(11),
		PaymentDelayDays:   p.intAt(12),
		Amount:             p.floatAt(13),
		PaymentFailures:    p.intAt(14),
		PaymentStatus:      row[15],
		Country:            row[16],
		City:               row[17],
		Newsletter:         p.boolAt(18),
		Satisfaction:       p.intAt(19),
		PriorCancellations: p.intAt(20),
		Modifications:      p.intAt(21),
		PaymentAttempts:    p.intAt(22),
		EmailDomain:        row[23],
		SuspiciousDomain:   p.boolAt(24),
		Label:              reservation.Label(p.intAt(25)),
	}
	return rec, p.err
}

// SaveRecords writes records to filename, replacing any existing file.
func SaveRecords(filename string, records []reservation.Record) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteRecords(file, records); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadRecords reads a raw table from filename.
func LoadRecords(filename string) ([]reservation.Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadRecords(file)
}

// FromRecords renders records as an untyped table with the raw header.
func FromRecords(records []reservation.Record) *Table {
	t := &Table{
		Header: slices.Clone(reservation.Columns),
		Rows:   make([][]string, len(records)),
	}
	for i := range records {
		t.Rows[i] = recordRow(&records[i])
	}
	return t
}
