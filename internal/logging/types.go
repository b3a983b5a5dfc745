package logging

import "time"

// #region call-entry
// CallEntry is a single row in the oracle_calls table.
type CallEntry struct {
	RunID     string
	Item      string
	Model     string
	Role      string // "sampler" | "responder" | "critic"
	Mode      string
	Failed    bool
	Latency   time.Duration
	CreatedAt time.Time
}
// #endregion call-entry

// #region outcome-entry
// OutcomeEntry is a single row in the item_outcomes table.
type OutcomeEntry struct {
	RunID     string
	Item      string
	Model     string // empty when the item failed before any model finished
	Outcome   string // "ok" | "failed"
	Label     string
	Detail    string
	CreatedAt time.Time
}
// #endregion outcome-entry
