package report

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/xuri/excelize/v2"
)

func sampleRun(t *testing.T) *tier.Run {
	t.Helper()
	ds := records.Dataset{
		Source: "datasetnew.json",
		Records: []records.SalesRecord{
			{ID: "1", StoreName: "Toko A", ProductName: "Kopi", Revenue: 424000, Flags: [3]string{"1", "0", "0"}},
			{ID: "2", StoreName: "Toko B", ProductName: "Teh", Revenue: 500000, Flags: [3]string{"0", "1", "0"}},
			{ID: "3", StoreName: "Toko C", ProductName: "Gula", Revenue: 915000, Flags: [3]string{"0", "1", "0"}},
			{ID: "4", StoreName: "Toko D", ProductName: "Kopi", Revenue: 430000, Flags: [3]string{"0", "0", "0"}},
		},
	}
	now := func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	run, err := tier.Process(context.Background(), ds, tier.DefaultCentroids, tier.Options{Now: now})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	return run
}

func openReport(t *testing.T, run *tier.Run) *excelize.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName(run.StartedAt))
	if err := WriteXLSX(path, run); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("%s!%s: %v", sheet, ref, err)
	}
	return v
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC))
	if got != "clustering_analysis_20240305_140709.xlsx" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestWorkbookSheets(t *testing.T) {
	f := openReport(t, sampleRun(t))
	want := []string{SheetDetailed, SheetSummary, SheetMismatches, SheetCentroids}
	got := f.GetSheetList()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
}

func TestDetailedAndMismatchRows(t *testing.T) {
	f := openReport(t, sampleRun(t))

	rows, err := f.GetRows(SheetDetailed)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("detailed rows = %d, want header + 4", len(rows))
	}
	if strings.Join(rows[0], "|") != strings.Join(resultHeader, "|") {
		t.Fatalf("header = %v", rows[0])
	}
	if got := cell(t, f, SheetDetailed, "D3"); got != "500000" {
		t.Fatalf("D3 = %q", got)
	}
	if got := cell(t, f, SheetDetailed, "E3"); got != "1" {
		t.Fatalf("calculated for 500000 = %q, want 1", got)
	}
	// record 4 has no pre-labeled tier
	if got := cell(t, f, SheetDetailed, "F5"); got != "" {
		t.Fatalf("existing for unlabeled = %q, want blank", got)
	}

	mm, err := f.GetRows(SheetMismatches)
	if err != nil {
		t.Fatalf("mismatch rows: %v", err)
	}
	if len(mm) != 3 {
		t.Fatalf("mismatch rows = %d, want header + 2", len(mm))
	}
	if mm[1][0] != "2" || mm[2][0] != "4" {
		t.Fatalf("mismatch ids = %q, %q", mm[1][0], mm[2][0])
	}
}

func TestSummarySheetLayout(t *testing.T) {
	f := openReport(t, sampleRun(t))
	checks := map[string]string{
		"A1":  "Summary Statistics",
		"A2":  "Total Records",
		"B2":  "4",
		"B3":  "2",
		"B4":  "50",
		"A10": "Cluster 3 Count (Existing)",
		"A12": "Cluster Characteristics",
		"A13": "Cluster 1",
		"B13": "low/starting sales",
		"A14": "Average Omset",
		"B15": "Kopi, Teh",
		"A17": "Cluster 2",
		"B18": "915000",
		"A21": "Cluster 3",
		"B22": NoData,
		"B23": "",
	}
	for ref, want := range checks {
		if got := cell(t, f, SheetSummary, ref); got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}
	if got := cell(t, f, SheetCentroids, "B4"); got != "689155580.85" {
		t.Fatalf("centroid 3 = %q", got)
	}
}

func TestSummaryMetricsUndefinedMatch(t *testing.T) {
	m := SummaryMetrics(tier.Summary{})
	if len(m) != 9 {
		t.Fatalf("metrics = %d, want 9", len(m))
	}
	if m[2].Value != NoData {
		t.Fatalf("match percentage = %v, want %q", m[2].Value, NoData)
	}
	m = SummaryMetrics(tier.Summary{Skipped: 2})
	if len(m) != 10 || m[9].Name != "Skipped Records" {
		t.Fatalf("metrics with skipped = %+v", m)
	}
}

func TestDetailedSheetReloads(t *testing.T) {
	run := sampleRun(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteXLSX(path, run); err != nil {
		t.Fatalf("write: %v", err)
	}
	opt := records.DefaultOptions()
	opt.SheetName = SheetDetailed
	opt.Fields.Flags = [3]string{}
	ds, err := records.Load(path, opt)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(ds.Records) != len(run.Results) {
		t.Fatalf("reloaded %d records, want %d", len(ds.Records), len(run.Results))
	}
	for i, r := range ds.Records {
		if r.ID != run.Results[i].ID || r.Revenue != run.Results[i].Revenue {
			t.Fatalf("record %d = %+v", i, r)
		}
	}
}

func TestTextSummary(t *testing.T) {
	out := Text(sampleRun(t))
	for _, want := range []string{
		"Cluster 1:",
		"Average revenue: Rp 451,333.33",
		"Characteristic: mid-stability sales",
		"Dominant products: Gula",
		"Average revenue: no data",
		"Matching clusters: 2/4 (50.00%)",
		"Records without an existing cluster: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text summary missing %q:\n%s", want, out)
		}
	}
}

func TestRupiah(t *testing.T) {
	if got := Rupiah(689155580.85); got != "Rp 689,155,580.85" {
		t.Fatalf("Rupiah = %q", got)
	}
}
