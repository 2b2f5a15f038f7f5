// Package export models a tabular IMDB data export and implements the
// snapshot pipeline around it: column projection, freshness comparison
// against the last committed snapshot, and deterministic CSV persistence.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ErrEmptyHeader indicates the export was missing its header row, which
// usually means the upstream export format changed.
var ErrEmptyHeader = fmt.Errorf("export has a missing or empty header row")

// ColumnError reports a column name that does not exist in an export's
// header. Requesting an absent column is treated as a configuration bug,
// never a silent no-op.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q not present in export header", e.Column)
}

// Export is an ordered header plus rows sharing that header's width.
// Immutable once constructed; operations return new values.
type Export struct {
	Header []string
	Rows   [][]string
}

// ParseCSV reads a raw export. The first record is the header; every data
// row must match its width (enforced by encoding/csv).
func ParseCSV(r io.Reader) (Export, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return Export{}, ErrEmptyHeader
	}
	if err != nil {
		return Export{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return Export{}, ErrEmptyHeader
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Export{}, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	return Export{Header: header, Rows: rows}, nil
}

func (e Export) columnIndex(name string) int {
	for i, col := range e.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// Project returns a copy of the export without the dropped columns,
// keeping the remaining columns in their original relative order. Every
// name in drop must exist in the header.
func (e Export) Project(drop []string) (Export, error) {
	dropSet := make(map[string]bool, len(drop))
	for _, name := range drop {
		if e.columnIndex(name) < 0 {
			return Export{}, &ColumnError{Column: name}
		}
		dropSet[name] = true
	}

	var keep []int
	for i, col := range e.Header {
		if !dropSet[col] {
			keep = append(keep, i)
		}
	}

	projected := Export{Header: make([]string, len(keep))}
	for i, idx := range keep {
		projected.Header[i] = e.Header[idx]
	}
	projected.Rows = make([][]string, len(e.Rows))
	for r, row := range e.Rows {
		projected.Rows[r] = make([]string, len(keep))
		for i, idx := range keep {
			projected.Rows[r][i] = row[idx]
		}
	}
	return projected, nil
}

// ColumnValues returns the ordered cell values of a single column.
func (e Export) ColumnValues(name string) ([]string, error) {
	idx := e.columnIndex(name)
	if idx < 0 {
		return nil, &ColumnError{Column: name}
	}
	values := make([]string, len(e.Rows))
	for i, row := range e.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Outdated reports whether candidate differs from the last committed
// snapshot: true when previous is absent, the headers differ, or any
// cell differs by exact string comparison. Row order is authoritative;
// no sorting or normalization happens here, so repeated runs against an
// unchanged remote produce zero writes and zero commits.
func Outdated(previous *Export, candidate Export) bool {
	if previous == nil {
		return true
	}
	if !stringsEqual(previous.Header, candidate.Header) {
		return true
	}
	if len(previous.Rows) != len(candidate.Rows) {
		return true
	}
	for i := range previous.Rows {
		if !stringsEqual(previous.Rows[i], candidate.Rows[i]) {
			return true
		}
	}
	return false
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
