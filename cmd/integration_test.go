package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"
)

const salesJSON = `[
  {"Data id": "1", "Nama Toko": "Toko A", "nama Produk": "Kopi", "Omset": "424,000.00", "Kluster 1": "1", "Kluster 2": "0", "Kluster 3": "0"},
  {"Data id": "2", "Nama Toko": "Toko B", "nama Produk": "Teh", "Omset": "500,000.00", "Kluster 1": "0", "Kluster 2": "1", "Kluster 3": "0"},
  {"Data id": "3", "Nama Toko": "Toko C", "nama Produk": "Gula", "Omset": "915,000.00", "Kluster 1": "0", "Kluster 2": "1", "Kluster 3": "0"}
]`

// resetFlags clears values and Changed state that persist between
// invocations of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI is a helper to execute the root command with args.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func execCmd(args ...string) (string, error) {
	resetFlags(rootCmd)
	cfg = nil
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestCLI_RunWritesReportSnapshotAndHistory(t *testing.T) {
	home := setupHome(t)
	input := filepath.Join(home, "datasetnew.json")
	if err := os.WriteFile(input, []byte(salesJSON), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	outDir := filepath.Join(home, "reports")
	snap := filepath.Join(home, "run1.snap")

	out := runCLI(t, "run", input, "--output-dir", outDir, "--snapshot", snap, "--history", "--no-progress", "--workers", "2")
	for _, want := range []string{
		"✓ Loaded 3 records from datasetnew.json",
		"Average revenue: Rp 462,000.00",
		"Matching clusters: 2/3 (66.67%)",
		"✓ Results saved to",
		"✓ Snapshot saved to",
		"recorded in history",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "clustering_analysis_*.xlsx"))
	if len(matches) != 1 {
		t.Fatalf("reports = %v, want one", matches)
	}
	if !regexp.MustCompile(`clustering_analysis_\d{8}_\d{6}\.xlsx$`).MatchString(matches[0]) {
		t.Fatalf("report name = %s", matches[0])
	}
	f, err := excelize.OpenFile(matches[0])
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Mismatches")
	if err != nil || len(rows) != 2 || rows[1][0] != "2" {
		t.Fatalf("mismatch rows = %v, %v", rows, err)
	}
	if _, err := os.Stat(filepath.Join(home, ".salestier", "history.db")); err != nil {
		t.Fatalf("history db: %v", err)
	}

	// same input, same centroids: snapshots agree
	snap2 := filepath.Join(home, "run2.snap")
	runCLI(t, "run", input, "-o", filepath.Join(home, "second.xlsx"), "--snapshot", snap2, "--history", "--no-progress")
	if out := runCLI(t, "diff", snap, snap2); !strings.Contains(out, "✓ Snapshots match (3 records)") {
		t.Fatalf("diff output:\n%s", out)
	}

	list := runCLI(t, "history", "list")
	lines := strings.Split(strings.TrimSpace(list), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "records=3 match=66.67%") {
		t.Fatalf("history list:\n%s", list)
	}
	id := strings.Fields(lines[0])[0]
	show := runCLI(t, "history", "show", id)
	for _, want := range []string{"Run: " + id, "Total Records: 3", "Cluster 3 (high-performing sales)", "Average revenue: no data"} {
		if !strings.Contains(show, want) {
			t.Errorf("history show missing %q:\n%s", want, show)
		}
	}
}

func TestCLI_RunWithOtherCentroidsDiffers(t *testing.T) {
	home := setupHome(t)
	input := filepath.Join(home, "sales.json")
	if err := os.WriteFile(input, []byte(salesJSON), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	a, b := filepath.Join(home, "a.snap"), filepath.Join(home, "b.snap")
	runCLI(t, "run", input, "-o", filepath.Join(home, "a.xlsx"), "--snapshot", a, "--no-progress")
	runCLI(t, "run", input, "-o", filepath.Join(home, "b.xlsx"), "--snapshot", b, "--no-progress", "--centroids", "100000,450000,900000")

	out, err := execCmd("diff", a, b, "--fail-on-change")
	if err == nil {
		t.Fatalf("expected --fail-on-change error")
	}
	if !strings.Contains(out, "#2 (id 2) calculated cluster: 1 -> 2") {
		t.Fatalf("diff output:\n%s", out)
	}
}

func TestCLI_UnorderedCentroidsWarn(t *testing.T) {
	setupHome(t)
	out := runCLI(t, "assign", "500,000", "--centroids", "915000,424000,689155580.85")
	if !strings.Contains(out, "not ascending") {
		t.Fatalf("missing ordering warning:\n%s", out)
	}
	if !strings.Contains(out, "✓ Cluster 2: mid-stability sales") {
		t.Fatalf("assign output:\n%s", out)
	}
}

func TestCLI_Assign(t *testing.T) {
	setupHome(t)
	out := runCLI(t, "assign", "915,000")
	if !strings.Contains(out, "Cluster 2 (centroid Rp 915,000.00): distance Rp 0.00") {
		t.Fatalf("assign output:\n%s", out)
	}
	if _, err := execCmd("assign", "abc"); err == nil {
		t.Fatalf("expected error for non-numeric revenue")
	}
	if _, err := execCmd("assign", "1", "--centroids", "1,2"); err == nil {
		t.Fatalf("expected error for two centroids")
	}
}

func TestCLI_MalformedInputFailsUnlessSkipped(t *testing.T) {
	home := setupHome(t)
	input := filepath.Join(home, "bad.json")
	content := `[
		{"Data id": "1", "Nama Toko": "T", "nama Produk": "P", "Omset": "100"},
		{"Data id": "2", "Nama Toko": "T", "nama Produk": "P", "Omset": "n/a"}
	]`
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	report := filepath.Join(home, "out.xlsx")
	if _, err := execCmd("run", input, "-o", report, "--no-progress"); err == nil || !strings.Contains(err.Error(), "record #2") {
		t.Fatalf("err = %v, want failure naming record #2", err)
	}
	if _, err := os.Stat(report); !os.IsNotExist(err) {
		t.Fatalf("report written for a failed run")
	}
	out := runCLI(t, "run", input, "-o", report, "--no-progress", "--skip-invalid")
	if !strings.Contains(out, "⚠ Skipped 1 malformed record(s)") {
		t.Fatalf("output:\n%s", out)
	}
	f, err := excelize.OpenFile(report)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("Summary Statistics", "A11"); v != "Skipped Records" {
		t.Fatalf("A11 = %q, want Skipped Records", v)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := setupHome(t)
	runCLI(t, "config", "set", "centroids", "1,2,3")
	runCLI(t, "config", "set", "fields.revenue", "revenue")
	runCLI(t, "config", "set", "history_dsn", "mysql://app:secret@db:3306/tiers")
	if _, err := os.Stat(filepath.Join(home, ".salestier", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCLI(t, "config", "show")
	for _, want := range []string{"revenue: revenue", "- 1", "- 3", "mysql://app:****@db:3306/tiers"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secret") {
		t.Fatalf("password leaked:\n%s", out)
	}
	if _, err := execCmd("config", "set", "centroids", "1,2"); err == nil {
		t.Fatalf("expected error for two centroids")
	}
	if _, err := execCmd("config", "set", "nope", "x"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestMaskDSN(t *testing.T) {
	tests := map[string]string{
		"mysql://u:pw@h:3306/db":             "mysql://u:****@h:3306/db",
		"u:pw@tcp(h:3306)/db":                "u:****@tcp(h:3306)/db",
		"host=h user=u password=pw dbname=d": "host=h user=u password=**** dbname=d",
		"/home/me/.salestier/history.db":     "/home/me/.salestier/history.db",
		"postgres://h/db":                    "postgres://h/db",
	}
	for in, want := range tests {
		if got := maskDSN(in); got != want {
			t.Errorf("maskDSN(%q) = %q, want %q", in, got, want)
		}
	}
}
