package clean

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/generator"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

func rawTable() *dataset.Table {
	header := []string{
		reservation.ColReservedAt,
		reservation.ColHour,
		reservation.ColReminderSent,
		reservation.ColNewsletter,
		reservation.ColSuspiciousDomain,
	}
	return &dataset.Table{
		Header: header,
		Rows: [][]string{
			{"2024-03-04 23:15:00", "0", "True", "False", "1"},
			{"2024-12-29 08:05:59", "0", "false", "TRUE", "0"},
		},
	}
}

func cell(t *testing.T, table *dataset.Table, row int, name string) string {
	t.Helper()
	j := table.Index(name)
	if j < 0 {
		t.Fatalf("missing column %s", name)
	}
	return table.Rows[row][j]
}

// TestTable tests timestamp decomposition and boolean normalisation.
func TestTable(t *testing.T) {
	table := rawTable()
	if err := Table(table); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		row  int
		col  string
		want string
	}{
		{0, reservation.ColHour, "23"},
		{0, reservation.ColMonth, "3"},
		{0, reservation.ColDayOfWeek, "0"}, // Monday
		{0, reservation.ColDate, "2024-03-04"},
		{0, reservation.ColTime, "23:15:00"},
		{0, reservation.ColSuspiciousDomain, "True"},
		{0, reservation.ColNewsletter, "False"},
		{1, reservation.ColDayOfWeek, "6"}, // Sunday
		{1, reservation.ColMonth, "12"},
		{1, reservation.ColHour, "8"},
		{1, reservation.ColReminderSent, "False"},
		{1, reservation.ColNewsletter, "True"},
		{1, reservation.ColSuspiciousDomain, "False"},
	}
	for _, tt := range tests {
		if got := cell(t, table, tt.row, tt.col); got != tt.want {
			t.Errorf("row %d %s = %q, want %q", tt.row, tt.col, got, tt.want)
		}
	}
	if len(table.Header) != 9 {
		t.Errorf("header = %v", table.Header)
	}
}

// TestTableIdempotent tests that cleaning a cleaned table changes nothing.
func TestTableIdempotent(t *testing.T) {
	table := rawTable()
	if err := Table(table); err != nil {
		t.Fatal(err)
	}
	before := len(table.Header)
	first := append([]string(nil), table.Rows[1]...)
	if err := Table(table); err != nil {
		t.Fatal(err)
	}
	if len(table.Header) != before {
		t.Errorf("header grew from %d to %d", before, len(table.Header))
	}
	for j, v := range table.Rows[1] {
		if v != first[j] {
			t.Errorf("column %s changed from %q to %q", table.Header[j], first[j], v)
		}
	}
}

// TestTableErrors tests bad timestamps, booleans and missing columns.
func TestTableErrors(t *testing.T) {
	table := rawTable()
	table.Rows[1][0] = "29/12/2024"
	if err := Table(table); err == nil {
		t.Error("expected timestamp error")
	}

	table = rawTable()
	table.Rows[0][2] = "sometimes"
	if err := Table(table); err == nil {
		t.Error("expected boolean error")
	}

	table = rawTable()
	table.Drop(reservation.ColNewsletter)
	if err := Table(table); !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}

// TestFile tests the file to file form.
func TestFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "raw.csv")
	dst := filepath.Join(dir, "clean.csv")
	records, _, err := generator.Build(context.Background(), generator.Options{
		Total:      40,
		FraudRatio: 0.25,
		Seed:       5,
		Now:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := dataset.SaveRecords(src, records); err != nil {
		t.Fatal(err)
	}

	cleaned, err := File(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := dataset.LoadTable(dst)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != len(records) || len(loaded.Header) != len(cleaned.Header) {
		t.Fatalf("loaded %d rows x %d columns", loaded.Len(), len(loaded.Header))
	}
	if loaded.Index(reservation.ColTime) < 0 || loaded.Index(reservation.ColDayOfWeek) < 0 {
		t.Errorf("header = %v", loaded.Header)
	}
	if got, want := cell(t, loaded, 3, reservation.ColTime), records[3].ReservedAt.Format(time.TimeOnly); got != want {
		t.Errorf("time = %s, want %s", got, want)
	}

	if _, err := File(filepath.Join(dir, "missing.csv"), dst); err == nil {
		t.Error("expected error for missing source")
	}

	// A partial table is not a raw dataset.
	partial := filepath.Join(dir, "partial.csv")
	if err := dataset.SaveTable(partial, rawTable()); err != nil {
		t.Fatal(err)
	}
	if _, err := File(partial, filepath.Join(dir, "partial-clean.csv")); !errors.Is(err, dataset.ErrSchemaMismatch) {
		t.Errorf("err = %v, want ErrSchemaMismatch", err)
	}
}
