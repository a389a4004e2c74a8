package records

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type xlsxFormat struct{}

func (xlsxFormat) CanLoad(filename string) bool { return hasSuffix(filename, ".xlsx") }

// ReadRows extracts rows from the selected sheet. The first row is the header.
// If opt.SheetName is empty, opt.SheetIndex (1-based) picks the sheet.
func (xlsxFormat) ReadRows(path string, opt Options) ([]Row, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	target, err := resolveSheet(sheets, rels, opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))
	rr := newSheetRowReader(readZipFile(zr, target), shared)
	header, _, ok := rr.Next()
	if !ok || len(header) == 0 {
		return nil, nil
	}
	var rows []Row
	for {
		cells, numeric, ok := rr.Next()
		if !ok {
			break
		}
		if blankRow(cells) {
			continue
		}
		rows = append(rows, rowFromCells(header, cells, numeric))
	}
	return rows, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func resolveSheet(sheets []wbSheet, rels map[string]string, name string, index int) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.Name
		}
		return "", fmt.Errorf("sheet '%s' not found; available sheets: %s", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range sheets {
		if s.SheetID == index {
			if rel, ok := rels[s.RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	return filepath.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

type sheetRowReader struct {
	dec     *xml.Decoder
	shared  []string
	inRow   bool
	cells   []string
	numeric []bool
	maxCol  int
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the next row's cell texts and, per cell, whether the cell was
// stored as a number.
func (r *sheetRowReader) Next() ([]string, []bool, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.cells, r.numeric = nil, nil
				r.maxCol = 0
			}
			if r.inRow && se.Name.Local == "c" {
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := colIndexFromRef(ref)
				if col < 0 {
					col = len(r.cells)
				}
				if col+1 > r.maxCol {
					r.maxCol = col + 1
				}
				val, hasValue := r.readCellValue(typ)
				r.grow(col + 1)
				r.cells[col] = val
				r.numeric[col] = hasValue && (typ == "" || typ == "n")
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				r.grow(r.maxCol)
				r.inRow = false
				return r.cells, r.numeric, true
			}
		}
	}
}

func (r *sheetRowReader) grow(n int) {
	if len(r.cells) >= n {
		return
	}
	cells := make([]string, n)
	copy(cells, r.cells)
	numeric := make([]bool, n)
	copy(numeric, r.numeric)
	r.cells, r.numeric = cells, numeric
}

// readCellValue consumes tokens up to </c>, capturing <v> or <is><t>.
func (r *sheetRowReader) readCellValue(typ string) (string, bool) {
	var val string
	var seen bool
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val, seen
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, er := r.dec.Token()
					if er != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
				seen = true
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if typ == "s" {
					idx := atoiSafe(val)
					if seen && idx >= 0 && idx < len(r.shared) {
						return r.shared[idx], true
					}
					return "", false
				}
				return val, seen
			}
		}
	}
}

// colIndexFromRef maps refs like "C12" to a 0-based column (2).
// It returns -1 when the ref carries no column letters.
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship targets ("/xl/worksheets/sheet1.xml",
// "worksheets/sheet1.xml") to ZIP entry names.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return "xl/" + rel
}
