package records

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Cell is one raw input value. Numeric is set when the source carried a
// typed number (JSON number literal, XLSX numeric cell) rather than text.
type Cell struct {
	Text    string
	Numeric bool
}

// Row maps an input key to its raw value. Absent keys are missing fields.
type Row map[string]Cell

// Format reads raw rows from one kind of input file.
type Format interface {
	CanLoad(filename string) bool
	ReadRows(path string, opt Options) ([]Row, error)
}

var registry []Format

// Register adds a format implementation to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

func init() {
	Register(jsonFormat{})
	Register(csvFormat{})
	Register(xlsxFormat{})
}

// Load reads path with the format matching its extension and converts every
// row into a SalesRecord. The first malformed record fails the load unless
// opt.SkipInvalid is set.
func Load(path string, opt Options) (*Dataset, error) {
	var format Format
	for _, f := range registry {
		if f.CanLoad(path) {
			format = f
			break
		}
	}
	if format == nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	rows, err := format.ReadRows(path, opt)
	if err != nil {
		return nil, err
	}
	return FromRows(filepath.Base(path), rows, opt)
}

// FromRows converts raw rows into a Dataset.
func FromRows(source string, rows []Row, opt Options) (*Dataset, error) {
	ds := &Dataset{Source: source, Records: make([]SalesRecord, 0, len(rows))}
	for i, r := range rows {
		rec, err := buildRecord(i, r, opt)
		if err != nil {
			var fe *FieldError
			if opt.SkipInvalid && errors.As(err, &fe) {
				ds.Skipped = append(ds.Skipped, SkippedRecord{Index: i, RecordID: fe.RecordID, Reason: fe.Error()})
				continue
			}
			return nil, err
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func buildRecord(i int, r Row, opt Options) (SalesRecord, error) {
	f := opt.Fields
	var rec SalesRecord
	id, ok := r[f.ID]
	if !ok {
		return rec, &FieldError{Index: i, Field: f.ID, Err: errMissingField}
	}
	rec.ID = id.Text
	for _, req := range []struct {
		key string
		dst *string
	}{
		{f.Store, &rec.StoreName},
		{f.Product, &rec.ProductName},
	} {
		c, ok := r[req.key]
		if !ok {
			return rec, &FieldError{Index: i, RecordID: rec.ID, Field: req.key, Err: errMissingField}
		}
		*req.dst = c.Text
	}
	rev, ok := r[f.Revenue]
	if !ok {
		return rec, &FieldError{Index: i, RecordID: rec.ID, Field: f.Revenue, Err: errMissingField}
	}
	var err error
	if rev.Numeric {
		rec.Revenue, err = parseFinite(rev.Text)
	} else {
		rec.Revenue, err = ParseRevenue(rev.Text, opt)
	}
	if err != nil {
		return rec, &FieldError{Index: i, RecordID: rec.ID, Field: f.Revenue, Value: rev.Text, Err: err}
	}
	// An absent flag is an unset flag.
	for k, key := range f.Flags {
		rec.Flags[k] = r[key].Text
		rec.NumericFlags[k] = r[key].Numeric
	}
	return rec, nil
}

func hasSuffix(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}
