// Package snapshot persists tier assignments as zstd-compressed JSON so two
// runs can be compared record by record.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/KaramelBytes/salestier-cli/internal/utils"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Extension is the conventional snapshot file suffix.
const Extension = ".snap"

const formatVersion = 1

// ErrVersion is returned for snapshots written by an unknown format version.
var ErrVersion = errors.New("unsupported snapshot version")

// Snapshot is the persisted form of a run. Profiles and the summary are
// derived data and are recomputed from Results on load.
type Snapshot struct {
	Version   int            `json:"version"`
	RunID     uuid.UUID      `json:"run_id"`
	CreatedAt time.Time      `json:"created_at"`
	Source    string         `json:"source"`
	Centroids tier.Centroids `json:"centroids"`
	Results   []tier.Result  `json:"results"`
}

// FromRun captures the parts of run that a snapshot keeps.
func FromRun(run *tier.Run) *Snapshot {
	return &Snapshot{
		Version:   formatVersion,
		RunID:     run.ID,
		CreatedAt: run.StartedAt,
		Source:    run.Source,
		Centroids: run.Centroids,
		Results:   run.Results,
	}
}

// Save writes s to path, replacing any existing file atomically.
func Save(path string, s *Snapshot) error {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(s); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// Load reads a snapshot written by Save.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var s Snapshot
	if err := json.NewDecoder(dec).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if s.Version != formatVersion {
		return nil, fmt.Errorf("%s: %w %d", path, ErrVersion, s.Version)
	}
	return &s, nil
}

// Difference is one field that changed between two snapshots. Index is -1
// for differences that are not tied to a record.
type Difference struct {
	Index    int
	RecordID string
	Field    string
	Before   string
	After    string
}

func (d Difference) String() string {
	if d.Index < 0 {
		return fmt.Sprintf("%s: %s -> %s", d.Field, d.Before, d.After)
	}
	return fmt.Sprintf("#%d (id %s) %s: %s -> %s", d.Index+1, d.RecordID, d.Field, d.Before, d.After)
}

// Diff compares a and b position by position. Records beyond the shorter
// snapshot are reported by the record count difference only.
func Diff(a, b *Snapshot) []Difference {
	var out []Difference
	for i := range a.Centroids {
		if a.Centroids[i] != b.Centroids[i] {
			out = append(out, Difference{
				Index:  -1,
				Field:  fmt.Sprintf("centroid %d", i+1),
				Before: formatFloat(a.Centroids[i]),
				After:  formatFloat(b.Centroids[i]),
			})
		}
	}
	if len(a.Results) != len(b.Results) {
		out = append(out, Difference{
			Index:  -1,
			Field:  "records",
			Before: strconv.Itoa(len(a.Results)),
			After:  strconv.Itoa(len(b.Results)),
		})
	}
	n := min(len(a.Results), len(b.Results))
	for i := 0; i < n; i++ {
		ra, rb := a.Results[i], b.Results[i]
		add := func(field, before, after string) {
			if before != after {
				out = append(out, Difference{Index: i, RecordID: ra.ID, Field: field, Before: before, After: after})
			}
		}
		add("id", ra.ID, rb.ID)
		add("revenue", formatFloat(ra.Revenue), formatFloat(rb.Revenue))
		add("calculated cluster", strconv.Itoa(ra.Calculated), strconv.Itoa(rb.Calculated))
		add("existing cluster", clusterText(ra.Existing), clusterText(rb.Existing))
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clusterText(id int) string {
	if id == 0 {
		return "none"
	}
	return strconv.Itoa(id)
}
