package state

import "time"

// #region run-status
// RunStatus is the lifecycle of one probing run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// #endregion run-status

// #region run-record
// RunRecord is one orchestrator invocation.
type RunRecord struct {
	RunID      string
	Mode       string
	ConfigJSON string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Processed  int
	Skipped    int
	Failed     int
}

// #endregion run-record

// #region call-count
// CallCount aggregates oracle_calls for one model and role.
type CallCount struct {
	Model    string
	Role     string
	Calls    int
	Failures int
}

// #endregion call-count

// #region outcome-record
// OutcomeRecord is one row of item_outcomes.
type OutcomeRecord struct {
	RunID     string
	Item      string
	Model     string
	Outcome   string // "ok" | "failed"
	Label     string
	Detail    string
	CreatedAt time.Time
}

// #endregion outcome-record
