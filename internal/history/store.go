// Package history records completed tier runs in a SQL database so earlier
// results can be listed and inspected. SQLite, MySQL/MariaDB and PostgreSQL
// are supported through database/sql.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/KaramelBytes/salestier-cli/internal/tier"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by GetRun for an unknown run id.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed-width so the text column sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tier_runs (
		id VARCHAR(36) PRIMARY KEY,
		started_at VARCHAR(32) NOT NULL,
		source VARCHAR(512) NOT NULL,
		centroid_1 DOUBLE PRECISION NOT NULL,
		centroid_2 DOUBLE PRECISION NOT NULL,
		centroid_3 DOUBLE PRECISION NOT NULL,
		total_records INTEGER NOT NULL,
		matching INTEGER NOT NULL,
		match_percent DOUBLE PRECISION NULL,
		unlabeled INTEGER NOT NULL,
		ambiguous INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tier_profiles (
		run_id VARCHAR(36) NOT NULL,
		cluster_id INTEGER NOT NULL,
		calculated_count INTEGER NOT NULL,
		existing_count INTEGER NOT NULL,
		average_revenue DOUBLE PRECISION NULL,
		characteristic VARCHAR(64) NOT NULL,
		dominant_products TEXT NOT NULL,
		PRIMARY KEY (run_id, cluster_id)
	)`,
}

// Entry is a stored run. Profiles is only populated by GetRun; the
// per-tier counts of Summary come from the profile rows as well.
type Entry struct {
	ID        string
	StartedAt time.Time
	Source    string
	Centroids tier.Centroids
	Summary   tier.Summary
	Profiles  []tier.Profile
}

// Store is a run history backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
	log    logrus.FieldLogger
}

// Open connects to the history database and creates the tables if needed.
// driver is one of sqlite, mysql (or mariadb) and postgres. An empty sqlite
// DSN selects ~/.salestier/history.db.
func Open(ctx context.Context, driver, dsn string, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	name, err := normalizeDriver(driver)
	if err != nil {
		return nil, err
	}
	resolved, err := resolveDSN(name, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, resolved)
	if err != nil {
		return nil, fmt.Errorf("open %s history: %w", name, err)
	}
	if name == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s history: %w", name, err)
	}
	s := &Store{db: db, driver: name, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("driver", name).Debug("history store ready")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create history tables: %w", err)
		}
	}
	return nil
}

func nullFloat(v float64, ok bool) sql.NullFloat64 {
	if !ok || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// SaveRun stores run and its tier profiles in a single transaction.
func (s *Store) SaveRun(ctx context.Context, run *tier.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	rollback := func(err error) error {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: %v", err, rerr)
		}
		return err
	}

	sum := run.Summary
	_, err = tx.ExecContext(ctx, rebind(s.driver, `INSERT INTO tier_runs
		(id, started_at, source, centroid_1, centroid_2, centroid_3,
		 total_records, matching, match_percent, unlabeled, ambiguous, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.StartedAt.UTC().Format(timeLayout), run.Source,
		run.Centroids[0], run.Centroids[1], run.Centroids[2],
		sum.Total, sum.Matching, nullFloat(sum.MatchPercent, sum.MatchDefined),
		sum.Unlabeled, sum.Ambiguous, sum.Skipped)
	if err != nil {
		return rollback(fmt.Errorf("insert run: %w", err))
	}

	insertProfile := rebind(s.driver, `INSERT INTO tier_profiles
		(run_id, cluster_id, calculated_count, existing_count, average_revenue, characteristic, dominant_products)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i, p := range run.Profiles {
		products, err := json.Marshal(p.DominantProducts)
		if err != nil {
			return rollback(fmt.Errorf("encode products: %w", err))
		}
		if _, err := tx.ExecContext(ctx, insertProfile,
			run.ID.String(), p.ClusterID, p.Count, sum.Existing[i],
			nullFloat(p.AverageRevenue, p.HasData), p.Characteristic, string(products)); err != nil {
			return rollback(fmt.Errorf("insert profile %d: %w", p.ClusterID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.WithFields(logrus.Fields{"run": run.ID, "driver": s.driver}).Info("run saved to history")
	return nil
}

const selectRun = `SELECT id, started_at, source, centroid_1, centroid_2, centroid_3,
	total_records, matching, match_percent, unlabeled, ambiguous, skipped FROM tier_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e       Entry
		started string
		pct     sql.NullFloat64
	)
	if err := row.Scan(&e.ID, &started, &e.Source,
		&e.Centroids[0], &e.Centroids[1], &e.Centroids[2],
		&e.Summary.Total, &e.Summary.Matching, &pct,
		&e.Summary.Unlabeled, &e.Summary.Ambiguous, &e.Summary.Skipped); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad started_at %q: %w", e.ID, started, err)
	}
	e.StartedAt = t
	e.Summary.MatchPercent = pct.Float64
	e.Summary.MatchDefined = pct.Valid
	return &e, nil
}

// ListRuns returns the most recent runs first. limit <= 0 lists all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Entry, error) {
	q := selectRun + ` ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, q), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

// GetRun returns one run with its tier profiles.
func (s *Store) GetRun(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, rebind(s.driver, selectRun+` WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, rebind(s.driver, `SELECT cluster_id, calculated_count, existing_count,
		average_revenue, characteristic, dominant_products
		FROM tier_profiles WHERE run_id = ? ORDER BY cluster_id`), id)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p        tier.Profile
			existing int
			avg      sql.NullFloat64
			products string
		)
		if err := rows.Scan(&p.ClusterID, &p.Count, &existing, &avg, &p.Characteristic, &products); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if err := json.Unmarshal([]byte(products), &p.DominantProducts); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
		p.HasData = avg.Valid
		p.AverageRevenue = math.NaN()
		if avg.Valid {
			p.AverageRevenue = avg.Float64
		}
		if p.ClusterID >= 1 && p.ClusterID <= tier.NumClusters {
			e.Summary.Calculated[p.ClusterID-1] = p.Count
			e.Summary.Existing[p.ClusterID-1] = existing
		}
		e.Profiles = append(e.Profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	return e, nil
}
