package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
)

// Table is an untyped CSV table. Later stages treat the raw file as opaque
// columns addressed by name.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a CSV with a header line.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteTable writes the header followed by every row.
func WriteTable(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// LoadTable reads a table from filename.
func LoadTable(filename string) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadTable(file)
}

// SaveTable writes t to filename, replacing any existing file.
func SaveTable(filename string, t *Table) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteTable(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Header, name)
}

// Require returns the positions of names, failing with ErrSchemaMismatch on
// the first missing column.
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.Index(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
		}
	}
	return idx, nil
}

// Column returns a copy of the values of column name.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.Require(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx[0]]
	}
	return values, nil
}

// Set replaces column name, appending it when absent.
func (t *Table) Set(name string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	j := t.Index(name)
	if j < 0 {
		t.Header = append(t.Header, name)
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], values[i])
		}
		return nil
	}
	for i := range t.Rows {
		t.Rows[i][j] = values[i]
	}
	return nil
}

// Drop removes the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) {
	keep := make([]int, 0, len(t.Header))
	for j, h := range t.Header {
		if !slices.Contains(names, h) {
			keep = append(keep, j)
		}
	}
	if len(keep) == len(t.Header) {
		return
	}

	header := make([]string, len(keep))
	for k, j := range keep {
		header[k] = t.Header[j]
	}
	t.Header = header
	for i, row := range t.Rows {
		out := make([]string, len(keep))
		for k, j := range keep {
			out[k] = row[j]
		}
		t.Rows[i] = out
	}
}
