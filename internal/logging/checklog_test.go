package logging

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-check-tests
func TestLogCheck_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := CheckEntry{
		SubjectID:  "d1",
		Operation:  "legality",
		ParamsJSON: `{"window":1}`,
		Outcome:    "pass",
		Reason:     "all predicates hold",
		DurationMS: 3,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := LogCheck(db, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM check_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var subjectID, outcome string
	db.QueryRow("SELECT subject_id, outcome FROM check_log").Scan(&subjectID, &outcome)
	if subjectID != "d1" {
		t.Errorf("expected subject_id 'd1', got %q", subjectID)
	}
	if outcome != "pass" {
		t.Errorf("expected outcome 'pass', got %q", outcome)
	}
}

func TestLogCheck_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogCheck(db, CheckEntry{SubjectID: "d2", Operation: "step", Outcome: "pass"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM check_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogCheck_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	err := LogCheck(db, CheckEntry{SubjectID: "d3", Operation: "type", Outcome: "fail"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var params, reason sql.NullString
	db.QueryRow("SELECT params_json, reason FROM check_log").Scan(&params, &reason)
	if params.Valid {
		t.Error("expected NULL params_json for empty string")
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
}

func TestLogCheck_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := LogCheck(db, CheckEntry{SubjectID: "d4", Operation: "step", Outcome: "pass"})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestListChecks_FiltersAndOrders(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for _, e := range []CheckEntry{
		{SubjectID: "a", Operation: "step", Outcome: "pass"},
		{SubjectID: "b", Operation: "legality", Outcome: "fail", Reason: "parity"},
		{SubjectID: "a", Operation: "innocence", Outcome: "pass"},
	} {
		if err := LogCheck(db, e); err != nil {
			t.Fatalf("LogCheck: %v", err)
		}
	}

	all, err := ListChecks(db, "", 10)
	if err != nil {
		t.Fatalf("ListChecks: %v", err)
	}
	if len(all) != 3 || all[0].Operation != "innocence" {
		t.Fatalf("expected 3 entries newest first, got %+v", all)
	}

	onlyA, err := ListChecks(db, "a", 10)
	if err != nil {
		t.Fatalf("ListChecks: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 entries for a, got %d", len(onlyA))
	}
	if limited, _ := ListChecks(db, "", 1); len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}
}

// #endregion log-check-tests

// #region logger-tests
func TestNewLogger(t *testing.T) {
	for _, json := range []bool{true, false} {
		logger, err := NewLogger("debug", json)
		if err != nil {
			t.Fatalf("NewLogger(json=%v): %v", json, err)
		}
		if !logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("expected debug level enabled")
		}
	}
	if _, err := NewLogger("loud", true); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

// #endregion logger-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
