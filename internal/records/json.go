package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

type jsonFormat struct{}

func (jsonFormat) CanLoad(filename string) bool { return hasSuffix(filename, ".json") }

func (jsonFormat) ReadRows(path string, _ Options) ([]Row, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return DecodeJSON(b)
}

// DecodeJSON accepts either an array of objects (one per record) or an object
// of equally long arrays keyed by column name.
func DecodeJSON(b []byte) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %v: %w", err, ErrMalformedInput)
	}
	switch v := doc.(type) {
	case []any:
		rows := make([]Row, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("record #%d is not an object: %w", i+1, ErrMalformedInput)
			}
			rows = append(rows, rowFromObject(obj))
		}
		return rows, nil
	case map[string]any:
		return rowsFromColumns(v)
	default:
		return nil, fmt.Errorf("json root must be an array or an object: %w", ErrMalformedInput)
	}
}

func rowFromObject(obj map[string]any) Row {
	r := make(Row, len(obj))
	for k, val := range obj {
		if c, ok := jsonCell(val); ok {
			r[k] = c
		}
	}
	return r
}

func rowsFromColumns(cols map[string]any) ([]Row, error) {
	names := make([]string, 0, len(cols))
	for k := range cols {
		names = append(names, k)
	}
	sort.Strings(names)
	n := -1
	for _, name := range names {
		arr, ok := cols[name].([]any)
		if !ok {
			return nil, fmt.Errorf("column %q is not an array: %w", name, ErrMalformedInput)
		}
		if n >= 0 && len(arr) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d: %w", name, len(arr), n, ErrMalformedInput)
		}
		n = len(arr)
	}
	if n < 0 {
		return nil, nil
	}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = make(Row, len(names))
	}
	for _, name := range names {
		for i, val := range cols[name].([]any) {
			if c, ok := jsonCell(val); ok {
				rows[i][name] = c
			}
		}
	}
	return rows, nil
}

// jsonCell renders a JSON scalar as its literal text; null counts as absent.
func jsonCell(v any) (Cell, bool) {
	switch t := v.(type) {
	case nil:
		return Cell{}, false
	case string:
		return Cell{Text: t}, true
	case json.Number:
		return Cell{Text: t.String(), Numeric: true}, true
	case bool:
		return Cell{Text: strconv.FormatBool(t)}, true
	default:
		b, _ := json.Marshal(t)
		return Cell{Text: string(b)}, true
	}
}
