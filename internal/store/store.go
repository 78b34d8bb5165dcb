package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/ludics-engine/internal/design"
	"github.com/danielpatrickdp/ludics-engine/internal/dispute"
	"github.com/danielpatrickdp/ludics-engine/internal/logging"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS designs (
	design_id        TEXT PRIMARY KEY,
	deliberation_id  TEXT NOT NULL,
	polarity         TEXT NOT NULL,
	acts_json        TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS designs_by_deliberation ON designs(deliberation_id);

CREATE TABLE IF NOT EXISTS disputes (
	dispute_id          TEXT PRIMARY KEY,
	positive_design_id  TEXT NOT NULL,
	negative_design_id  TEXT NOT NULL,
	status              TEXT NOT NULL,
	play_json           TEXT NOT NULL,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS check_results (
	subject_id   TEXT NOT NULL,
	kind         TEXT NOT NULL,
	result_json  TEXT NOT NULL,
	checked_at   TEXT NOT NULL,
	PRIMARY KEY (subject_id, kind)
);
`

// #endregion schema

// #region store-struct
// Store persists engine inputs and outputs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations, including the
// check_log table owned by the logging package.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: SQLite has a single writer and the engine writes from
	// parallel batches.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(logging.Schema); err != nil {
		return nil, fmt.Errorf("migrate check log: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region designs
// SaveDesign inserts or replaces a design.
func (s *Store) SaveDesign(d *design.Design) error {
	actsJSON, err := json.Marshal(d.Acts)
	if err != nil {
		return fmt.Errorf("marshal acts: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO designs (design_id, deliberation_id, polarity, acts_json, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(design_id) DO UPDATE SET
			deliberation_id = excluded.deliberation_id,
			polarity = excluded.polarity,
			acts_json = excluded.acts_json`,
		d.ID, d.DeliberationID, d.Polarity.String(), string(actsJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save design %s: %w", d.ID, err)
	}
	return nil
}

// GetDesign retrieves a design by ID.
func (s *Store) GetDesign(id string) (*design.Design, error) {
	var deliberationID, pol, actsJSON string
	err := s.db.QueryRow(
		`SELECT deliberation_id, polarity, acts_json FROM designs WHERE design_id = ?`, id,
	).Scan(&deliberationID, &pol, &actsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get design %s: %w", id, err)
	}
	return decodeDesign(id, deliberationID, pol, actsJSON)
}

// ListDesigns returns the designs of one deliberation ordered by ID. An
// empty deliberation lists every design.
func (s *Store) ListDesigns(deliberationID string) ([]*design.Design, error) {
	query := `SELECT design_id, deliberation_id, polarity, acts_json FROM designs`
	var args []interface{}
	if deliberationID != "" {
		query += ` WHERE deliberation_id = ?`
		args = append(args, deliberationID)
	}
	rows, err := s.db.Query(query+` ORDER BY design_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var out []*design.Design
	for rows.Next() {
		var id, delib, pol, actsJSON string
		if err := rows.Scan(&id, &delib, &pol, &actsJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		d, err := decodeDesign(id, delib, pol, actsJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func decodeDesign(id, deliberationID, pol, actsJSON string) (*design.Design, error) {
	polarity, err := design.ParsePolarity(pol)
	if err != nil {
		return nil, fmt.Errorf("design %s: %w", id, err)
	}
	var acts []design.Act
	if err := json.Unmarshal([]byte(actsJSON), &acts); err != nil {
		return nil, fmt.Errorf("unmarshal acts of %s: %w", id, err)
	}
	return design.New(id, deliberationID, polarity, acts), nil
}

// #endregion designs

// #region disputes
// SaveDispute inserts or replaces a play.
func (s *Store) SaveDispute(p *dispute.Play) error {
	playJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal play: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO disputes (dispute_id, positive_design_id, negative_design_id, status, play_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(dispute_id) DO UPDATE SET
			status = excluded.status,
			play_json = excluded.play_json`,
		p.ID, p.PositiveDesignID, p.NegativeDesignID, string(p.Status), string(playJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save dispute %s: %w", p.ID, err)
	}
	return nil
}

// GetDispute retrieves a play by ID.
func (s *Store) GetDispute(id string) (*dispute.Play, error) {
	var playJSON string
	err := s.db.QueryRow(`SELECT play_json FROM disputes WHERE dispute_id = ?`, id).Scan(&playJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispute %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get dispute %s: %w", id, err)
	}
	var p dispute.Play
	if err := json.Unmarshal([]byte(playJSON), &p); err != nil {
		return nil, fmt.Errorf("unmarshal play %s: %w", id, err)
	}
	return &p, nil
}

// ListDisputes returns the plays a design took part in, on either side, in
// insertion order.
func (s *Store) ListDisputes(designID string) ([]*dispute.Play, error) {
	rows, err := s.db.Query(
		`SELECT play_json FROM disputes
		 WHERE positive_design_id = ? OR negative_design_id = ?
		 ORDER BY rowid`, designID, designID,
	)
	if err != nil {
		return nil, fmt.Errorf("list disputes: %w", err)
	}
	defer rows.Close()

	var out []*dispute.Play
	for rows.Next() {
		var playJSON string
		if err := rows.Scan(&playJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var p dispute.Play
		if err := json.Unmarshal([]byte(playJSON), &p); err != nil {
			return nil, fmt.Errorf("unmarshal play: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// #endregion disputes

// #region results
// PutResult caches a check result as JSON, replacing any earlier one.
func (s *Store) PutResult(subjectID, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO check_results (subject_id, kind, result_json, checked_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(subject_id, kind) DO UPDATE SET
			result_json = excluded.result_json,
			checked_at = excluded.checked_at`,
		subjectID, kind, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put result %s/%s: %w", subjectID, kind, err)
	}
	return nil
}

// GetResult decodes a cached check result into out.
func (s *Store) GetResult(subjectID, kind string, out any) error {
	var data string
	err := s.db.QueryRow(
		`SELECT result_json FROM check_results WHERE subject_id = ? AND kind = ?`, subjectID, kind,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("result %s/%s: %w", subjectID, kind, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get result %s/%s: %w", subjectID, kind, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshal result %s/%s: %w", subjectID, kind, err)
	}
	return nil
}

// ListResults returns the most recently checked results.
func (s *Store) ListResults(limit int) ([]ResultRecord, error) {
	rows, err := s.db.Query(
		`SELECT subject_id, kind, result_json, checked_at
		 FROM check_results ORDER BY checked_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		var rec ResultRecord
		var checkedStr string
		if err := rows.Scan(&rec.SubjectID, &rec.Kind, &rec.ResultJSON, &checkedStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CheckedAt, _ = time.Parse(time.RFC3339Nano, checkedStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion results
