package iostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftwatch/driftwatch/schema"
)

// RunStore tracks detection runs in the configured database so operators can
// audit when detections ran, how long they took and how many anomalies they
// produced.
type RunStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

// timeLayout is RFC3339 with fixed-width fractional seconds, so stored
// timestamps sort lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunStatus summarizes the ledger.
type RunStatus struct {
	TotalRuns int64
	LastRun   time.Time
}

// NewRunStore opens the ledger, running schema migrations as needed.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStore, error) {
	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := migrateRuns(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RunStore{db: db, backend: backend}, nil
}

// BeginRun records the start of a detection run and returns its ledger ID.
// Timestamps live as RFC3339 UTC strings so the same queries behave
// identically on all three backends.
func (s *RunStore) BeginRun(ctx context.Context, start time.Time, params map[string]any) (int64, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("encode config params: %w", err)
	}
	startText := start.UTC().Format(timeLayout)

	if s.backend == schema.PostgreSQLBackend {
		var id int64
		err := s.db.QueryRowContext(ctx,
			`INSERT INTO detection_runs (started_at, config_params) VALUES ($1, $2) RETURNING id`,
			startText, string(encoded)).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("begin run: %w", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO detection_runs (started_at, config_params) VALUES (?, ?)`,
		startText, string(encoded))
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return res.LastInsertId()
}

// EndRun records the completion of a detection run.
func (s *RunStore) EndRun(ctx context.Context, id int64, end time.Time, totalRows, anomalyRows int) error {
	query := `UPDATE detection_runs
		SET finished_at = ?, duration_ms = ?, total_rows = ?, anomaly_rows = ?
		WHERE id = ?`
	args := []any{end.UTC().Format(timeLayout), int64(0), totalRows, anomalyRows, id}

	var startedText string
	startQuery := `SELECT started_at FROM detection_runs WHERE id = ?`
	if s.backend == schema.PostgreSQLBackend {
		startQuery = `SELECT started_at FROM detection_runs WHERE id = $1`
		query = `UPDATE detection_runs
			SET finished_at = $1, duration_ms = $2, total_rows = $3, anomaly_rows = $4
			WHERE id = $5`
	}
	if err := s.db.QueryRowContext(ctx, startQuery, id).Scan(&startedText); err != nil {
		return fmt.Errorf("end run %d: %w", id, err)
	}
	started, err := time.Parse(timeLayout, startedText)
	if err != nil {
		return fmt.Errorf("end run %d: parse started_at %q: %w", id, startedText, err)
	}
	args[1] = end.Sub(started).Milliseconds()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("end run %d: %w", id, err)
	}
	return nil
}

// Status returns summary information about the ledger.
func (s *RunStore) Status(ctx context.Context) (RunStatus, error) {
	var status RunStatus
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM detection_runs`).Scan(&status.TotalRuns); err != nil {
		return RunStatus{}, fmt.Errorf("ledger status: %w", err)
	}
	// RFC3339 strings sort chronologically, so MAX is the newest run.
	var last sql.NullString
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(started_at) FROM detection_runs`).Scan(&last); err != nil {
		return RunStatus{}, fmt.Errorf("ledger status: %w", err)
	}
	if last.Valid {
		t, err := time.Parse(timeLayout, last.String)
		if err != nil {
			return RunStatus{}, fmt.Errorf("ledger status: parse started_at %q: %w", last.String, err)
		}
		status.LastRun = t
	}
	return status, nil
}

// Close closes the underlying connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}
