// Package history persists a record of past analysis runs in a local
// SQLite database so successive comparisons can be listed and audited.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	kerrors "kapidiff/internal/errors"
	"kapidiff/internal/logging"
)

// Store is the run-history database.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Run is one recorded analysis run.
type Run struct {
	ID                   string `json:"id"`
	OldVersion           string `json:"old_version"`
	NewVersion           string `json:"new_version"`
	GeneratedAt          string `json:"generated_at"`
	DurationMs           int64  `json:"duration_ms"`
	FunctionChanges      int    `json:"function_changes"`
	StructChanges        int    `json:"struct_changes"`
	MacroChanges         int    `json:"macro_changes"`
	TotalBreakingChanges int    `json:"total_breaking_changes"`
	HighSeverity         int    `json:"high_severity"`
	CreatedAt            string `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    old_version TEXT NOT NULL,
    new_version TEXT NOT NULL,
    generated_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    function_changes INTEGER NOT NULL,
    struct_changes INTEGER NOT NULL,
    macro_changes INTEGER NOT NULL,
    total_breaking_changes INTEGER NOT NULL,
    high_severity INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Open opens or creates the history database at
// <workDir>/.kapidiff/history.db.
func Open(workDir string, logger *logging.Logger) (*Store, error) {
	stateDir := filepath.Join(workDir, ".kapidiff")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, kerrors.New(kerrors.HistoryUnavailable, "failed to create state directory", err)
	}

	dbPath := filepath.Join(stateDir, "history.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, kerrors.New(kerrors.HistoryUnavailable, "failed to open history database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, kerrors.New(kerrors.HistoryUnavailable, "failed to set pragma", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, kerrors.New(kerrors.HistoryUnavailable, "failed to initialize schema", err)
	}

	logger.Debug("history database opened", map[string]interface{}{
		"path": dbPath,
	})

	return &Store{conn: conn, logger: logger, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record inserts one run. The run ID must be unique.
func (s *Store) Record(run Run) error {
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := s.conn.Exec(`
		INSERT INTO runs (
			id, old_version, new_version, generated_at, duration_ms,
			function_changes, struct_changes, macro_changes,
			total_breaking_changes, high_severity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.OldVersion, run.NewVersion, run.GeneratedAt, run.DurationMs,
		run.FunctionChanges, run.StructChanges, run.MacroChanges,
		run.TotalBreakingChanges, run.HighSeverity, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. A limit below 1
// means no limit.
func (s *Store) List(limit int) ([]Run, error) {
	query := `
		SELECT id, old_version, new_version, generated_at, duration_ms,
		       function_changes, struct_changes, macro_changes,
		       total_breaking_changes, high_severity, created_at
		FROM runs ORDER BY created_at DESC, id DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.conn.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = s.conn.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.OldVersion, &r.NewVersion, &r.GeneratedAt, &r.DurationMs,
			&r.FunctionChanges, &r.StructChanges, &r.MacroChanges,
			&r.TotalBreakingChanges, &r.HighSeverity, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run by ID, or sql.ErrNoRows.
func (s *Store) Get(id string) (Run, error) {
	var r Run
	err := s.conn.QueryRow(`
		SELECT id, old_version, new_version, generated_at, duration_ms,
		       function_changes, struct_changes, macro_changes,
		       total_breaking_changes, high_severity, created_at
		FROM runs WHERE id = ?`, id,
	).Scan(
		&r.ID, &r.OldVersion, &r.NewVersion, &r.GeneratedAt, &r.DurationMs,
		&r.FunctionChanges, &r.StructChanges, &r.MacroChanges,
		&r.TotalBreakingChanges, &r.HighSeverity, &r.CreatedAt,
	)
	return r, err
}
