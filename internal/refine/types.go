package refine

import (
	"github.com/danielpatrickdp/coref-probe/internal/eval"
	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

// #region state
// Phase is where one item sits in the critique/refine cycle.
type Phase string

const (
	PhaseInitial    Phase = "initial"
	PhaseCritiqued  Phase = "critiqued"
	PhaseRefined    Phase = "refined"
	PhaseTerminated Phase = "terminated"
)

// state is the per-item refinement state. Attempts never exceeds the
// loop's maxAttempts.
type state struct {
	phase    Phase
	response string
	label    label.Label
	critique string
	attempts int
}

// #endregion state

// #region result
// Result is the outcome of one responder/critic run on an item.
type Result struct {
	Responder       string
	Critic          string
	InitialResponse string
	InitialLabel    label.Label
	FinalResponse   string
	FinalLabel      label.Label
	FinalCritique   string
	AttemptsUsed    int
	Perfect         bool
	Rubric          eval.EvalResult
	Calls           []oracle.Call
}

// #endregion result
