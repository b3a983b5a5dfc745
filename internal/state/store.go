package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	mode         TEXT NOT NULL,
	config_json  TEXT,
	status       TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	processed    INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS oracle_calls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	item        TEXT NOT NULL,
	model       TEXT NOT NULL,
	role        TEXT NOT NULL,
	mode        TEXT NOT NULL,
	failed      INTEGER NOT NULL,
	latency_ms  INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS item_outcomes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	item        TEXT NOT NULL,
	model       TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	label       TEXT,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_oracle_calls_run ON oracle_calls(run_id);
CREATE INDEX IF NOT EXISTS idx_item_outcomes_run ON item_outcomes(run_id);
`
// #endregion schema

// TimeLayout is fixed-width so TEXT ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store is the SQLite run ledger: one row per run, per oracle call and
// per finished item.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
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

// #region begin-run
// BeginRun inserts a running row and returns it with a fresh run ID.
func (s *Store) BeginRun(mode, configJSON string) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		Mode:       mode,
		ConfigJSON: configJSON,
		Status:     RunRunning,
		StartedAt:  time.Now().UTC(),
	}

	var cfg interface{}
	if configJSON != "" {
		cfg = configJSON
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, mode, config_json, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Mode, cfg, string(rec.Status), rec.StartedAt.Format(TimeLayout),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}
// #endregion begin-run

// #region finish-run
// FinishRun records the terminal status and item counters of a run.
func (s *Store) FinishRun(runID string, status RunStatus, processed, skipped, failed int) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ?, processed = ?, skipped = ?, failed = ? WHERE run_id = ?`,
		string(status), time.Now().UTC().Format(TimeLayout), processed, skipped, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
// #endregion finish-run

// #region get-run
// GetRun retrieves one run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, mode, config_json, status, started_at, finished_at, processed, skipped, failed
		 FROM runs WHERE run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}
// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, mode, config_json, status, started_at, finished_at, processed, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (RunRecord, error) {
	var rec RunRecord
	var cfg, finished sql.NullString
	var status, started string
	if err := r.Scan(&rec.RunID, &rec.Mode, &cfg, &status, &started, &finished, &rec.Processed, &rec.Skipped, &rec.Failed); err != nil {
		return RunRecord{}, err
	}
	rec.Status = RunStatus(status)
	if cfg.Valid {
		rec.ConfigJSON = cfg.String
	}
	rec.StartedAt, _ = time.Parse(TimeLayout, started)
	if finished.Valid {
		rec.FinishedAt, _ = time.Parse(TimeLayout, finished.String)
	}
	return rec, nil
}
// #endregion list-runs

// #region call-counts
// CallCounts aggregates a run's oracle calls by model and role.
func (s *Store) CallCounts(runID string) ([]CallCount, error) {
	rows, err := s.db.Query(
		`SELECT model, role, COUNT(*), COALESCE(SUM(failed), 0)
		 FROM oracle_calls WHERE run_id = ?
		 GROUP BY model, role ORDER BY model, role`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("call counts: %w", err)
	}
	defer rows.Close()

	var out []CallCount
	for rows.Next() {
		var c CallCount
		if err := rows.Scan(&c.Model, &c.Role, &c.Calls, &c.Failures); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
// #endregion call-counts

// #region outcomes
// Outcomes lists a run's item outcomes in insertion order.
func (s *Store) Outcomes(runID string) ([]OutcomeRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, item, model, outcome, label, detail, created_at
		 FROM item_outcomes WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []OutcomeRecord
	for rows.Next() {
		var o OutcomeRecord
		var lbl, detail sql.NullString
		var created string
		if err := rows.Scan(&o.RunID, &o.Item, &o.Model, &o.Outcome, &lbl, &detail, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		o.Label = lbl.String
		o.Detail = detail.String
		o.CreatedAt, _ = time.Parse(TimeLayout, created)
		out = append(out, o)
	}
	return out, rows.Err()
}
// #endregion outcomes
