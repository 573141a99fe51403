// Package results persists benchmark runs to an embedded SQLite database,
// so that successive runs against different libraries can be compared.
package results

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"graphbench/pkg/aging"
	"graphbench/pkg/config"
)

// Store is an open results database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                  TEXT PRIMARY KEY,
	created_at          TIMESTAMP NOT NULL,
	library             TEXT NOT NULL,
	log_path            TEXT NOT NULL,
	num_threads         INTEGER NOT NULL,
	worker_granularity  INTEGER NOT NULL,
	build_frequency_ms  INTEGER NOT NULL,
	num_reports_per_ops INTEGER NOT NULL,
	measure_latency     INTEGER NOT NULL,
	num_operations      INTEGER NOT NULL,
	num_artificial_vtx  INTEGER NOT NULL,
	num_vertices_load   INTEGER NOT NULL,
	num_edges_load      INTEGER NOT NULL,
	num_vertices_final  INTEGER NOT NULL,
	num_edges_final     INTEGER NOT NULL,
	vertices_match      INTEGER NOT NULL,
	edges_match         INTEGER NOT NULL,
	completion_time_us  INTEGER NOT NULL,
	build_invocations   INTEGER NOT NULL,
	random_vertex_id    INTEGER NOT NULL,
	latency_mean_ns     INTEGER NOT NULL,
	latency_p50_ns      INTEGER NOT NULL,
	latency_p90_ns      INTEGER NOT NULL,
	latency_p99_ns      INTEGER NOT NULL,
	latency_max_ns      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS reported_times (
	run_id TEXT NOT NULL REFERENCES runs(id),
	idx    INTEGER NOT NULL,
	micros INTEGER NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

// Open opens (and if needed initializes) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init results schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun appends one run and returns its generated id.
func (s *Store) SaveRun(cfg config.Config, result *aging.Result) (string, error) {
	id := uuid.NewString()
	latency := result.LatencySummary()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs (
		id, created_at, library, log_path, num_threads, worker_granularity,
		build_frequency_ms, num_reports_per_ops, measure_latency,
		num_operations, num_artificial_vtx, num_vertices_load, num_edges_load,
		num_vertices_final, num_edges_final, vertices_match, edges_match,
		completion_time_us, build_invocations, random_vertex_id,
		latency_mean_ns, latency_p50_ns, latency_p90_ns, latency_p99_ns, latency_max_ns
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), cfg.Library, cfg.LogPath, cfg.NumThreads, cfg.WorkerGranularity,
		cfg.BuildFrequencyMS, cfg.NumReportsPerOps, cfg.MeasureLatency,
		result.NumOperationsTotal, result.NumArtificialVertices, result.NumVerticesLoad, result.NumEdgesLoad,
		result.NumVerticesFinalGraph, result.NumEdgesFinalGraph, result.VerticesMatch(), result.EdgesMatch(),
		result.CompletionTime.Microseconds(), result.NumBuildInvocations, result.RandomVertexID,
		latency.Mean.Nanoseconds(), latency.P50.Nanoseconds(), latency.P90.Nanoseconds(),
		latency.P99.Nanoseconds(), latency.Max.Nanoseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO reported_times (run_id, idx, micros) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("save reported times: %w", err)
	}
	defer stmt.Close()
	for i, t := range result.ReportedTimes {
		if _, err := stmt.Exec(id, i, t.Microseconds()); err != nil {
			return "", fmt.Errorf("save reported times: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

// RunSummary is one persisted run, as returned by ListRuns.
type RunSummary struct {
	ID               string
	CreatedAt        time.Time
	Library          string
	NumThreads       int
	NumOperations    uint64
	CompletionTimeUS int64
	Matched          bool
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`SELECT id, created_at, library, num_threads, num_operations,
		completion_time_us, vertices_match AND edges_match
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Library, &r.NumThreads,
			&r.NumOperations, &r.CompletionTimeUS, &r.Matched); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ReportedTimes returns the progress samples of one run, in order.
func (s *Store) ReportedTimes(runID string) ([]time.Duration, error) {
	rows, err := s.db.Query(`SELECT micros FROM reported_times WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("reported times: %w", err)
	}
	defer rows.Close()

	var times []time.Duration
	for rows.Next() {
		var micros int64
		if err := rows.Scan(&micros); err != nil {
			return nil, fmt.Errorf("reported times: %w", err)
		}
		times = append(times, time.Duration(micros)*time.Microsecond)
	}
	return times, rows.Err()
}
