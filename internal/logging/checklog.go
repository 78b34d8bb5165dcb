package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
// Schema creates the check_log table. The store runs it as part of its own
// migration; callers holding a bare *sql.DB can run it directly.
const Schema = `
CREATE TABLE IF NOT EXISTS check_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	subject_id   TEXT NOT NULL,
	operation    TEXT NOT NULL,
	params_json  TEXT,
	outcome      TEXT NOT NULL,
	reason       TEXT,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region log-check
// LogCheck writes a check entry to the check_log table.
func LogCheck(db *sql.DB, entry CheckEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO check_log (subject_id, operation, params_json, outcome, reason, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SubjectID,
		entry.Operation,
		nullIfEmpty(entry.ParamsJSON),
		entry.Outcome,
		nullIfEmpty(entry.Reason),
		entry.DurationMS,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log check: %w", err)
	}
	return nil
}

// #endregion log-check

// #region list-checks
// ListChecks returns the most recent entries, optionally for one subject.
func ListChecks(db *sql.DB, subjectID string, limit int) ([]CheckEntry, error) {
	query := `SELECT subject_id, operation, params_json, outcome, reason, duration_ms, created_at
		 FROM check_log`
	args := []interface{}{}
	if subjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var entries []CheckEntry
	for rows.Next() {
		var e CheckEntry
		var params, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SubjectID, &e.Operation, &params, &e.Outcome, &reason, &e.DurationMS, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.ParamsJSON = params.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-checks

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
