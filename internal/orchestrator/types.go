package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/coref-probe/internal/oracle"
)

// #region mode
// Mode selects what the orchestrator runs per item.
type Mode string

const (
	ModeAdaptive Mode = "adaptive"
	ModeRefine   Mode = "refine"
	ModeFixed    Mode = "fixed"
)
// #endregion mode

// #region pair
// Pair is one responder/critic combination for the refinement loop.
type Pair struct {
	Responder string `json:"responder" yaml:"responder" mapstructure:"responder"`
	Critic    string `json:"critic" yaml:"critic" mapstructure:"critic"`
}

func (p Pair) String() string {
	return p.Responder + "->" + p.Critic
}
// #endregion pair

// #region options
// Options is the immutable run configuration handed to New.
type Options struct {
	Mode                Mode          `json:"mode"`
	Models              []string      `json:"models,omitempty"`
	Pairs               []Pair        `json:"pairs,omitempty"`
	Vocabulary          []string      `json:"vocabulary,omitempty"` // empty = default pronoun set
	MaxSamples          int           `json:"max_samples"`
	ConfidenceThreshold float64       `json:"confidence_threshold"`
	MaxAttempts         int           `json:"max_attempts"`
	FixedSamples        int           `json:"fixed_samples"`
	Timeout             time.Duration `json:"timeout"`
	RequestDelay        time.Duration `json:"request_delay"`
	ItemDelay           time.Duration `json:"item_delay"`
	OutputDir           string        `json:"output_dir"`
	RawLogPath          string        `json:"raw_log_path,omitempty"` // empty = <OutputDir>/raw_llm_responses.jsonl
}

// Validate rejects options no run can honour.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeAdaptive, ModeFixed:
		if len(o.Models) == 0 {
			return fmt.Errorf("%s mode needs at least one model", o.Mode)
		}
	case ModeRefine:
		if len(o.Pairs) == 0 {
			return fmt.Errorf("refine mode needs at least one responder/critic pair")
		}
		for _, p := range o.Pairs {
			if p.Responder == "" || p.Critic == "" {
				return fmt.Errorf("incomplete pair %q", p.String())
			}
		}
	default:
		return fmt.Errorf("unknown mode %q", o.Mode)
	}
	if o.MaxSamples < 1 {
		return fmt.Errorf("max samples must be >= 1, got %d", o.MaxSamples)
	}
	if o.ConfidenceThreshold <= 0 || o.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in (0, 1], got %v", o.ConfidenceThreshold)
	}
	if o.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must be >= 0, got %d", o.MaxAttempts)
	}
	if o.Mode == ModeFixed && o.FixedSamples < 1 {
		return fmt.Errorf("fixed samples must be >= 1, got %d", o.FixedSamples)
	}
	if o.Timeout < 0 || o.RequestDelay < 0 || o.ItemDelay < 0 {
		return fmt.Errorf("timeout and delays must not be negative")
	}
	if o.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	return nil
}
// #endregion options

// #region output-names
const (
	AdaptiveFileName = "adaptive_consistency_predictions.json"
	FixedFileName    = "z_cot_sc_results.json"
	RawLogFileName   = "raw_llm_responses.jsonl"
)
// #endregion output-names

// #region summary
// Summary reports what one Run did. In refine mode every (item, pair)
// combination counts once.
type Summary struct {
	RunID     string
	Processed int
	Skipped   int
	Failed    int
	Tally     []oracle.TallyEntry
}
// #endregion summary

// #region errors
// ErrPersist marks a failure to write the aggregate store or raw log.
// It aborts the run.
var ErrPersist = errors.New("persist results")

// ItemError is an unexpected per-item failure. The item is left out of
// the aggregate and the run continues.
type ItemError struct {
	Item string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.Item, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
// #endregion errors
