package tier

import (
	"context"
	"io"
	"time"

	"github.com/KaramelBytes/salestier-cli/internal/records"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

// Result is one record with its distances and both tier labels.
// Existing is 0 when the record carries no pre-labeled tier.
type Result struct {
	records.SalesRecord
	Distances      [NumClusters]float64 `json:"distances"`
	Calculated     int                  `json:"calculated_cluster"`
	Existing       int                  `json:"existing_cluster,omitempty"`
	AmbiguousLabel bool                 `json:"ambiguous_label,omitempty"`
}

// Matches reports whether the calculated tier equals the pre-labeled one.
func (r Result) Matches() bool { return r.Existing != 0 && r.Calculated == r.Existing }

// Warning flags a record-level oddity that did not stop the run.
type Warning struct {
	Index    int
	RecordID string
	Message  string
}

// Run is the full outcome of one pass over a dataset.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Source    string
	Centroids Centroids
	Results   []Result
	Profiles  [NumClusters]Profile
	Summary   Summary
	Warnings  []Warning
	Skipped   []records.SkippedRecord
}

// Mismatches returns the results whose calculated tier differs from the
// pre-labeled one, unlabeled records included.
func (r *Run) Mismatches() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Matches() {
			out = append(out, res)
		}
	}
	return out
}

// Options tunes Process.
type Options struct {
	// Workers > 1 assigns records concurrently; output order is unchanged.
	Workers int
	// OnProgress is called once per assigned record. With Workers > 1 it is
	// called from several goroutines.
	OnProgress func()
	Logger     logrus.FieldLogger
	// Now stamps Run.StartedAt; defaults to time.Now.
	Now func() time.Time
}

// Process assigns every record, then analyzes the complete result set.
func Process(ctx context.Context, ds records.Dataset, centroids Centroids, opt Options) (*Run, error) {
	log := opt.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	run := &Run{
		ID:        uuid.New(),
		StartedAt: now(),
		Source:    ds.Source,
		Centroids: centroids,
		Skipped:   ds.Skipped,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"run": run.ID, "records": len(ds.Records), "workers": opt.Workers}).Debug("assigning records")

	assign := func(rec *records.SalesRecord) Result {
		// Once cancelled, the remaining records are left unassigned and the
		// run is discarded below.
		if ctx.Err() != nil {
			return Result{}
		}
		d, calc := centroids.Assign(rec.Revenue)
		existing, ambiguous := ExistingCluster(rec.TextFlags())
		if opt.OnProgress != nil {
			opt.OnProgress()
		}
		return Result{SalesRecord: *rec, Distances: d, Calculated: calc, Existing: existing, AmbiguousLabel: ambiguous}
	}
	if opt.Workers > 1 {
		mapper := iter.Mapper[records.SalesRecord, Result]{MaxGoroutines: opt.Workers}
		run.Results = mapper.Map(ds.Records, assign)
	} else {
		run.Results = make([]Result, len(ds.Records))
		for i := range ds.Records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			run.Results[i] = assign(&ds.Records[i])
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, r := range run.Results {
		if !r.AmbiguousLabel {
			continue
		}
		w := Warning{Index: i, RecordID: r.ID, Message: "more than one tier flag set; using the first"}
		run.Warnings = append(run.Warnings, w)
		log.WithFields(logrus.Fields{"record": r.ID, "index": i, "existing": r.Existing}).Warn(w.Message)
	}

	run.Profiles = Analyze(run.Results)
	run.Summary = Summarize(run.Results)
	run.Summary.Skipped = len(ds.Skipped)
	log.WithFields(logrus.Fields{
		"run":      run.ID,
		"total":    run.Summary.Total,
		"matching": run.Summary.Matching,
		"skipped":  run.Summary.Skipped,
	}).Info("tier assignment complete")
	return run, nil
}
