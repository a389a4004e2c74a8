package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the clustering workbook, in order.
const (
	SheetDetailed   = "Detailed Results"
	SheetSummary    = "Summary Statistics"
	SheetMismatches = "Mismatches"
	SheetCentroids  = "Centroids"
)

// NoData is shown where an aggregate is undefined.
const NoData = "no data"

var resultHeader = []string{"Data id", "Nama Toko", "nama Produk", "Omset", "Calculated Cluster", "Existing Cluster"}

// FileName is the default report name for a run started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("clustering_analysis_%s.xlsx", t.Format("20060102_150405"))
}

// WriteXLSX renders run into a workbook at path.
func WriteXLSX(path string, run *tier.Run) error {
	f, err := Build(run)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

type styles struct {
	header int
	number int
	text   int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	numFmt := "#,##0.00"
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	if s.number, err = f.NewStyle(&excelize.Style{Border: border, CustomNumFmt: &numFmt}); err != nil {
		return s, fmt.Errorf("number style: %w", err)
	}
	if s.text, err = f.NewStyle(&excelize.Style{Border: border}); err != nil {
		return s, fmt.Errorf("text style: %w", err)
	}
	return s, nil
}

// Build assembles the four-sheet workbook. The caller closes the file.
func Build(run *tier.Run) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", SheetDetailed); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetMismatches, SheetCentroids} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
	}
	w := &sheetWriter{f: f, st: st}
	w.results(SheetDetailed, run.Results)
	w.summary(run)
	w.results(SheetMismatches, run.Mismatches())
	w.centroids(run.Centroids)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// sheetWriter keeps the first error so the layout code reads top to bottom.
type sheetWriter struct {
	f   *excelize.File
	st  styles
	err error
}

func (w *sheetWriter) set(sheet string, col, row int, v any, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if v != nil {
		if err := w.f.SetCellValue(sheet, cell, v); err != nil {
			w.err = fmt.Errorf("%s!%s: %w", sheet, cell, err)
			return
		}
	}
	if err := w.f.SetCellStyle(sheet, cell, cell, style); err != nil {
		w.err = fmt.Errorf("%s!%s style: %w", sheet, cell, err)
	}
}

func (w *sheetWriter) width(sheet, from, to string, width float64) {
	if w.err != nil {
		return
	}
	if err := w.f.SetColWidth(sheet, from, to, width); err != nil {
		w.err = fmt.Errorf("%s width %s:%s: %w", sheet, from, to, err)
	}
}

func (w *sheetWriter) results(sheet string, results []tier.Result) {
	for i, h := range resultHeader {
		w.set(sheet, i+1, 1, h, w.st.header)
	}
	for i, r := range results {
		row := i + 2
		w.set(sheet, 1, row, r.ID, w.st.text)
		w.set(sheet, 2, row, r.StoreName, w.st.text)
		w.set(sheet, 3, row, r.ProductName, w.st.text)
		w.set(sheet, 4, row, r.Revenue, w.st.number)
		w.set(sheet, 5, row, r.Calculated, w.st.text)
		var existing any
		if r.Existing != 0 {
			existing = r.Existing
		}
		w.set(sheet, 6, row, existing, w.st.text)
	}
	w.width(sheet, "A", "C", 20)
	w.width(sheet, "D", "D", 15)
	w.width(sheet, "E", "F", 12)
}

// Metric is one labelled value of the summary sheet.
type Metric struct {
	Name  string
	Value any
}

// SummaryMetrics lists the metric rows of the summary sheet in order.
func SummaryMetrics(s tier.Summary) []Metric {
	var pct any = NoData
	if s.MatchDefined {
		pct = s.MatchPercent
	}
	m := []Metric{
		{"Total Records", s.Total},
		{"Matching Clusters", s.Matching},
		{"Match Percentage", pct},
	}
	for i := 0; i < tier.NumClusters; i++ {
		m = append(m, Metric{fmt.Sprintf("Cluster %d Count (Calculated)", i+1), s.Calculated[i]})
	}
	for i := 0; i < tier.NumClusters; i++ {
		m = append(m, Metric{fmt.Sprintf("Cluster %d Count (Existing)", i+1), s.Existing[i]})
	}
	if s.Skipped > 0 {
		m = append(m, Metric{"Skipped Records", s.Skipped})
	}
	return m
}

func (w *sheetWriter) summary(run *tier.Run) {
	const sheet = SheetSummary
	w.set(sheet, 1, 1, "Summary Statistics", w.st.header)
	metrics := SummaryMetrics(run.Summary)
	for i, m := range metrics {
		w.set(sheet, 1, i+2, m.Name, w.st.text)
		style := w.st.text
		if _, ok := m.Value.(float64); ok {
			style = w.st.number
		}
		w.set(sheet, 2, i+2, m.Value, style)
	}

	// 1-based row of the characteristics header, one blank row after metrics.
	top := len(metrics) + 3
	w.set(sheet, 1, top, "Cluster Characteristics", w.st.header)
	w.set(sheet, 2, top, "", w.st.header)
	for _, p := range run.Profiles {
		base := top + (p.ClusterID-1)*4 + 1
		w.set(sheet, 1, base, fmt.Sprintf("Cluster %d", p.ClusterID), w.st.text)
		w.set(sheet, 2, base, p.Characteristic, w.st.text)
		w.set(sheet, 1, base+1, "Average Omset", w.st.text)
		if p.HasData {
			w.set(sheet, 2, base+1, p.AverageRevenue, w.st.number)
		} else {
			w.set(sheet, 2, base+1, NoData, w.st.text)
		}
		w.set(sheet, 1, base+2, "Dominant Products", w.st.text)
		w.set(sheet, 2, base+2, strings.Join(p.DominantProducts, ", "), w.st.text)
	}
	w.width(sheet, "A", "A", 30)
	w.width(sheet, "B", "B", 50)
}

func (w *sheetWriter) centroids(c tier.Centroids) {
	const sheet = SheetCentroids
	w.set(sheet, 1, 1, "Cluster", w.st.header)
	w.set(sheet, 2, 1, "Centroid Value", w.st.header)
	for i, v := range c {
		w.set(sheet, 1, i+2, fmt.Sprintf("Cluster %d", i+1), w.st.text)
		w.set(sheet, 2, i+2, v, w.st.number)
	}
	w.width(sheet, "A", "A", 15)
	w.width(sheet, "B", "B", 20)
}
