package oracle

import (
	"context"
	"sync"
)

// #region step
// Step is one scripted oracle outcome.
type Step struct {
	Text string
	Fail string // non-empty = report a Failure with this reason
}

// Reply scripts a successful response.
func Reply(text string) Step { return Step{Text: text} }

// Fail scripts a failed call.
func Fail(reason string) Step { return Step{Fail: reason} }

// #endregion step

// #region script
// Script is a deterministic Client that replays steps in order.
// Once exhausted every call fails with "script exhausted".
type Script struct {
	mu       sync.Mutex
	steps    []Step
	requests []Request
}

// NewScript creates a scripted oracle.
func NewScript(steps ...Step) *Script {
	return &Script{steps: steps}
}

// Query returns the next scripted step.
func (s *Script) Query(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if err := ctx.Err(); err != nil {
		return "", &Failure{Model: req.Model, Reason: "cancelled", Err: err}
	}
	if len(s.steps) == 0 {
		return "", &Failure{Model: req.Model, Reason: "script exhausted"}
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	if step.Fail != "" {
		return "", &Failure{Model: req.Model, Reason: step.Fail}
	}
	return step.Text, nil
}

// Requests returns every request seen so far.
func (s *Script) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Remaining returns the number of unconsumed steps.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// #endregion script
