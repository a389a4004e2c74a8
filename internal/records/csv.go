package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvFormat struct{}

func (csvFormat) CanLoad(filename string) bool { return hasSuffix(filename, ".csv", ".tsv") }

func (csvFormat) ReadRows(path string, opt Options) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows []Row
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read csv row %d: %v: %w", len(rows)+1, err, ErrMalformedInput)
		}
		rows = append(rows, rowFromCells(header, rec, nil))
	}
	return rows, nil
}

func sniffDelimiter(path string) rune {
	if hasSuffix(path, ".tsv") {
		return '\t'
	}
	return ','
}

// rowFromCells zips a header with one row. Short rows leave trailing keys
// absent. numeric, when non-nil, marks typed numeric cells.
func rowFromCells(header, cells []string, numeric []bool) Row {
	r := make(Row, len(header))
	for j, name := range header {
		if j >= len(cells) {
			break
		}
		c := Cell{Text: cells[j]}
		if j < len(numeric) {
			c.Numeric = numeric[j]
		}
		r[strings.TrimSpace(name)] = c
	}
	return r
}
