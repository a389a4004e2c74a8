package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/KaramelBytes/salestier-cli/internal/tier"
)

func runOf(t *testing.T, c tier.Centroids, revenues ...float64) *tier.Run {
	t.Helper()
	ds := records.Dataset{Source: "sales.json"}
	for i, v := range revenues {
		ds.Records = append(ds.Records, records.SalesRecord{
			ID:          string(rune('a' + i)),
			StoreName:   "Toko",
			ProductName: "Kopi",
			Revenue:     v,
			Flags:       [3]string{"1", "0", "0"},
		})
	}
	run, err := tier.Process(context.Background(), ds, c, tier.Options{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	return run
}

func TestSaveLoadRoundTrip(t *testing.T) {
	run := runOf(t, tier.DefaultCentroids, 424000, 915000, 7e8)
	path := filepath.Join(t.TempDir(), "run"+Extension)
	if err := Save(path, FromRun(run)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RunID != run.ID || got.Source != "sales.json" || got.Centroids != run.Centroids {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Results) != 3 || got.Results[2].Calculated != 3 || got.Results[0].Existing != 1 {
		t.Fatalf("results = %+v", got.Results)
	}
	if d := Diff(FromRun(run), got); len(d) != 0 {
		t.Fatalf("round trip differs: %v", d)
	}
}

func TestLoadRejectsPlainJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.snap")
	if err := os.WriteFile(path, []byte(`{"version":1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for uncompressed file")
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	s := FromRun(runOf(t, tier.DefaultCentroids, 1))
	s.Version = 99
	path := filepath.Join(t.TempDir(), "v99.snap")
	if err := Save(path, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("err = %v, want ErrVersion", err)
	}
}

func TestDiff(t *testing.T) {
	a := FromRun(runOf(t, tier.DefaultCentroids, 500000, 915000))
	b := FromRun(runOf(t, tier.Centroids{100000, 600000, 9e8}, 500000, 915000, 1))

	diffs := Diff(a, b)
	var lines []string
	for _, d := range diffs {
		lines = append(lines, d.String())
	}
	got := strings.Join(lines, "\n")
	for _, want := range []string{
		"centroid 1: 424000 -> 100000",
		"centroid 3: 689155580.85 -> 900000000",
		"records: 2 -> 3",
		"#1 (id a) calculated cluster: 1 -> 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("diff missing %q:\n%s", want, got)
		}
	}
	// 915000 stays in tier 2 under both centroid sets
	for _, d := range diffs {
		if d.Index == 1 {
			t.Errorf("unexpected difference for record 2: %v", d)
		}
	}
}
