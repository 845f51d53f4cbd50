package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedRow is returned when a cell cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
)

// table is a header-addressed CSV body.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads a CSV with a header line and checks the required columns.
func readTable(r io.Reader, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file, want %s", ErrMissingColumn, strings.Join(required, ","))
	}

	t := &table{columns: make(map[string]int, len(records[0]))}
	for i, name := range records[0] {
		t.columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := t.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}

	t.rows = records[1:]
	return t, nil
}

// has reports whether the optional column is present.
func (t *table) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// cell returns the trimmed value of column in row, empty if the row is short.
func (t *table) cell(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func malformed(line int, column, value string, err error) error {
	return fmt.Errorf("%w: line %d column %s value %q: %v", ErrMalformedRow, line, column, value, err)
}

// parseInt accepts integers written as floats ("123.0"), as pandas exports them.
func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer: %s", s)
	}
	return int64(f), nil
}

// parseOptionalInt returns nil for empty and NaN cells.
func parseOptionalInt(s string) (*int64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	v, err := parseInt(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
