package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/coref-probe/internal/state"
)

// #region log-call
// LogCall writes one oracle call to the oracle_calls table.
func LogCall(db *sql.DB, entry CallEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	failed := 0
	if entry.Failed {
		failed = 1
	}
	_, err := db.Exec(
		`INSERT INTO oracle_calls (run_id, item, model, role, mode, failed, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Item,
		entry.Model,
		entry.Role,
		entry.Mode,
		failed,
		entry.Latency.Milliseconds(),
		entry.CreatedAt.Format(state.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("log call: %w", err)
	}
	return nil
}
// #endregion log-call

// #region log-outcome
// LogOutcome writes one finished or failed item to the item_outcomes table.
func LogOutcome(db *sql.DB, entry OutcomeEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO item_outcomes (run_id, item, model, outcome, label, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Item,
		entry.Model,
		entry.Outcome,
		nullIfEmpty(entry.Label),
		nullIfEmpty(entry.Detail),
		entry.CreatedAt.Format(state.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("log outcome: %w", err)
	}
	return nil
}
// #endregion log-outcome

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
