package oracle

import "sync"

// #region tally
// TallyEntry is the query count for one (model, role) pair.
type TallyEntry struct {
	Model string
	Role  Role
	Count int
}

type tallyKey struct {
	model string
	role  Role
}

// Tally counts oracle queries per model and role. Observability only.
// A nil *Tally is a valid empty tally that discards additions.
type Tally struct {
	mu     sync.Mutex
	counts map[tallyKey]int
	order  []tallyKey
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[tallyKey]int)}
}

// Add records one query.
func (t *Tally) Add(model string, role Role) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addLocked(tallyKey{model, role}, 1)
}

func (t *Tally) addLocked(k tallyKey, n int) {
	if t.counts == nil {
		t.counts = make(map[tallyKey]int)
	}
	if _, ok := t.counts[k]; !ok {
		t.order = append(t.order, k)
	}
	t.counts[k] += n
}

// Count returns the number of queries for model in role.
func (t *Tally) Count(model string, role Role) int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[tallyKey{model, role}]
}

// Total returns the number of queries across all models and roles.
func (t *Tally) Total() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// Entries returns counts in first-seen order.
func (t *Tally) Entries() []TallyEntry {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TallyEntry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, TallyEntry{Model: k.model, Role: k.role, Count: t.counts[k]})
	}
	return out
}

// Merge adds every count from other into t.
func (t *Tally) Merge(other *Tally) {
	if t == nil || other == nil {
		return
	}
	entries := other.Entries()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		t.addLocked(tallyKey{e.Model, e.Role}, e.Count)
	}
}

// #endregion tally
