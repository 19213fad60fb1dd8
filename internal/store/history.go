package store

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sprint_results (
	run_id         TEXT PRIMARY KEY,
	sprint_number  INTEGER NOT NULL,
	success        INTEGER NOT NULL,
	iterations     INTEGER NOT NULL,
	reward         REAL NOT NULL,
	focus          TEXT NOT NULL,
	errors_json    TEXT,
	artifacts_json TEXT,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recovery_audit (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	component  TEXT NOT NULL,
	operation  TEXT NOT NULL,
	severity   TEXT NOT NULL,
	action     TEXT NOT NULL,
	success    INTEGER NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL
);
`

// #endregion schema

// #region rows

// SprintRow is one persisted sprint outcome.
type SprintRow struct {
	RunID        string
	SprintNumber int
	Success      bool
	Iterations   int
	Reward       float64
	Focus        string
	Errors       []string
	Artifacts    []string
	CreatedAt    time.Time
}

// AuditRow is one persisted recovery attempt.
type AuditRow struct {
	Component string
	Operation string
	Severity  string
	Action    string
	Success   bool
	Detail    string
	CreatedAt time.Time
}

// #endregion

// #region history-struct

// History keeps the sprint and recovery record in SQLite.
type History struct {
	db *sql.DB
}

// NewHistory opens the history database and runs migrations.
func NewHistory(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// #endregion

// #region append-result

// AppendResult inserts one sprint outcome row.
func (h *History) AppendResult(row SprintRow) error {
	errsJSON, err := json.Marshal(row.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}
	artsJSON, err := json.Marshal(row.Artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}

	success := 0
	if row.Success {
		success = 1
	}

	_, err = h.db.Exec(
		`INSERT INTO sprint_results
		 (run_id, sprint_number, success, iterations, reward, focus, errors_json, artifacts_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.SprintNumber, success, row.Iterations, row.Reward,
		row.Focus, string(errsJSON), string(artsJSON),
		row.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert sprint result: %w", err)
	}
	return nil
}

// #endregion

// #region list-results

// ListResults returns the most recent sprint outcomes, newest first.
func (h *History) ListResults(limit int) ([]SprintRow, error) {
	rows, err := h.db.Query(
		`SELECT run_id, sprint_number, success, iterations, reward, focus, errors_json, artifacts_json, created_at
		 FROM sprint_results ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sprint results: %w", err)
	}
	defer rows.Close()

	var out []SprintRow
	for rows.Next() {
		var row SprintRow
		var success int
		var errsJSON, artsJSON sql.NullString
		var createdStr string

		if err := rows.Scan(&row.RunID, &row.SprintNumber, &success, &row.Iterations,
			&row.Reward, &row.Focus, &errsJSON, &artsJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.Success = success == 1
		if errsJSON.Valid && errsJSON.String != "" {
			if err := json.Unmarshal([]byte(errsJSON.String), &row.Errors); err != nil {
				return nil, fmt.Errorf("unmarshal errors: %w", err)
			}
		}
		if artsJSON.Valid && artsJSON.String != "" {
			if err := json.Unmarshal([]byte(artsJSON.String), &row.Artifacts); err != nil {
				return nil, fmt.Errorf("unmarshal artifacts: %w", err)
			}
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion

// #region audit

// AppendAudit inserts one recovery audit row.
func (h *History) AppendAudit(row AuditRow) error {
	success := 0
	if row.Success {
		success = 1
	}
	_, err := h.db.Exec(
		`INSERT INTO recovery_audit (component, operation, severity, action, success, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.Component, row.Operation, row.Severity, row.Action, success,
		row.Detail, row.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

// ListAudit returns the most recent recovery audit rows, newest first.
func (h *History) ListAudit(limit int) ([]AuditRow, error) {
	rows, err := h.db.Query(
		`SELECT component, operation, severity, action, success, detail, created_at
		 FROM recovery_audit ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit rows: %w", err)
	}
	defer rows.Close()

	var out []AuditRow
	for rows.Next() {
		var row AuditRow
		var success int
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&row.Component, &row.Operation, &row.Severity,
			&row.Action, &success, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		row.Success = success == 1
		if detail.Valid {
			row.Detail = detail.String
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion
