package sampler

import (
	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

// #region config
// Config bounds one adaptive run.
type Config struct {
	MaxSamples          int
	ConfidenceThreshold float64
	Vocabulary          label.Vocabulary
}

// DefaultConfig matches the budget and threshold used for the published runs.
func DefaultConfig() Config {
	return Config{
		MaxSamples:          10,
		ConfidenceThreshold: 0.95,
		Vocabulary:          label.DefaultVocabulary(),
	}
}

// #endregion config

// #region sample
// Sample is one categorized oracle answer for an item.
type Sample struct {
	Label   label.Label
	RawText string
	Model   string
	Round   int
}

// #endregion sample

// #region stop-reason
// StopReason records why sampling ended.
type StopReason string

const (
	// StopLocked: the plurality lead exceeds the remaining budget.
	StopLocked StopReason = "locked"
	// StopConfident: the stop probability reached the threshold.
	StopConfident StopReason = "confident"
	// StopBudget: every sample in the budget was drawn.
	StopBudget StopReason = "budget"
)

// #endregion stop-reason

// #region result
// Result is the finalized outcome of one adaptive run.
type Result struct {
	FinalLabel      label.Label
	Consistency     float64
	Samples         []Sample
	SampleCount     int
	StopProbability float64
	StopReason      StopReason
	Counts          *Counts
	Calls           []oracle.Call
}

// Labels returns the sample labels in draw order.
func (r Result) Labels() []label.Label {
	out := make([]label.Label, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Label
	}
	return out
}

// FixedResult is the outcome of the fixed-budget zero-shot / CoT /
// self-consistency probe.
type FixedResult struct {
	ZeroShot     label.Label
	CoT          label.Label
	MajorityVote label.Label
	Samples      []label.Label
	Calls        []oracle.Call
}

// #endregion result
