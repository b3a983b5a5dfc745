package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// #region request
// Request is a single prompt addressed to a named model.
type Request struct {
	Model   string
	Prompt  string
	Timeout time.Duration // hard wall-clock bound, 0 = caller's context only
}

// Client issues one blocking query per call and never retries internally.
// Any failure is reported as a *Failure.
type Client interface {
	Query(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to the Client interface.
type Func func(ctx context.Context, req Request) (string, error)

// Query calls f.
func (f Func) Query(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// #endregion request

// #region failure
// Failure reports a timed-out, crashed or unreachable oracle call.
// It is never fatal to the driving loop.
type Failure struct {
	Model  string
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("oracle %s: %s", f.Model, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// FailurePrefix starts the response text recorded for a failed call.
const FailurePrefix = "ERROR: "

// FailureText is the response text recorded in place of a failed call.
func FailureText(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return FailurePrefix + f.Reason
	}
	return FailurePrefix + err.Error()
}

// #endregion failure

// #region role
// Role names the part an oracle call plays, for cost accounting.
type Role string

const (
	RoleSampler   Role = "sampler"
	RoleResponder Role = "responder"
	RoleCritic    Role = "critic"
)

// #endregion role

// #region call
// Call is one recorded oracle interaction. Each becomes a raw-log line.
type Call struct {
	Model    string
	Role     Role
	Mode     string // e.g. "adaptive_sample_3", "critique_1", "cot"
	Item     string
	Prompt   string
	Response string
	Failed   bool
	Latency  time.Duration
}

// #endregion call
