package dataset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	// ErrNoHeader is returned when the first row is missing or blank.
	ErrNoHeader = errors.New("dataset has no header row")
)

// Table is a parsed spreadsheet: one header row followed by data rows.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Index returns the position of the named column, or -1.
func (t Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Cell returns the value at row/col. Rows shorter than the header read as
// empty trailing cells.
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Read parses r according to the extension of name.
func Read(name string, r io.Reader) (Table, error) {
	var (
		table Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		table, err = ReadXLSX(r)
	case ".csv":
		table, err = ReadCSV(r)
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	table.Name = name
	return table, nil
}

func fromRecords(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	blank := true
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] != "" {
			blank = false
		}
	}
	if blank {
		return Table{}, ErrNoHeader
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlankRow(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return Table{Columns: header, Rows: rows}, nil
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
