package records

import (
	"errors"
	"fmt"
)

// ErrMalformedInput marks records whose required fields are absent or whose
// revenue cannot be parsed.
var ErrMalformedInput = errors.New("malformed input")

// ErrUnsupported indicates an input format the loader cannot read.
var ErrUnsupported = errors.New("unsupported input format")

var (
	errMissingField = errors.New("required field is absent")
	errBadRevenue   = errors.New("revenue is not a number")
)

// SalesRecord is one store/product revenue observation.
// Flags holds the three pre-labeled tier flags in their original text form.
// NumericFlags marks flags the source stored as typed numbers.
type SalesRecord struct {
	ID           string    `json:"id"`
	StoreName    string    `json:"store_name"`
	ProductName  string    `json:"product_name"`
	Revenue      float64   `json:"revenue"`
	Flags        [3]string `json:"flags"`
	NumericFlags [3]bool   `json:"-"`
}

// TextFlags returns Flags with typed numeric values blanked, so only flags
// written as text take part in label comparison.
func (r SalesRecord) TextFlags() [3]string {
	out := r.Flags
	for i, numeric := range r.NumericFlags {
		if numeric {
			out[i] = ""
		}
	}
	return out
}

// Fields names the input keys (JSON object keys or header columns) read for
// each record.
type Fields struct {
	ID      string
	Store   string
	Product string
	Revenue string
	Flags   [3]string
}

// DefaultFields returns the key names used by the sales export.
func DefaultFields() Fields {
	return Fields{
		ID:      "Data id",
		Store:   "Nama Toko",
		Product: "nama Produk",
		Revenue: "Omset",
		Flags:   [3]string{"Kluster 1", "Kluster 2", "Kluster 3"},
	}
}

// Options controls how an input file is read.
type Options struct {
	Fields Fields
	// Number parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// CSV delimiter. If 0, chosen from the file extension.
	Delimiter rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// SkipInvalid drops malformed records into Dataset.Skipped instead of
	// failing the load.
	SkipInvalid bool
}

// DefaultOptions reads revenue as "1,234,567.89".
func DefaultOptions() Options {
	return Options{
		Fields:             DefaultFields(),
		DecimalSeparator:   '.',
		ThousandsSeparator: ',',
		SheetIndex:         1,
	}
}

// Dataset is the parsed content of one input file.
type Dataset struct {
	Source  string
	Records []SalesRecord
	Skipped []SkippedRecord
}

// SkippedRecord describes a record dropped under Options.SkipInvalid.
type SkippedRecord struct {
	Index    int    `json:"index"`
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

// FieldError reports the record and field that could not be read.
// It matches ErrMalformedInput under errors.Is.
type FieldError struct {
	Index    int
	RecordID string
	Field    string
	Value    string
	Err      error
}

func (e *FieldError) Error() string {
	where := fmt.Sprintf("record #%d", e.Index+1)
	if e.RecordID != "" {
		where += fmt.Sprintf(" (id %s)", e.RecordID)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: field %q = %q: %v", where, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: field %q: %v", where, e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrMalformedInput, e.Err} }
