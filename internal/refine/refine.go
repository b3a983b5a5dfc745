package refine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/coref-probe/internal/eval"
	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
	"github.com/danielpatrickdp/coref-probe/internal/prompt"
)

// DefaultMaxAttempts bounds critique/refine rounds per item.
const DefaultMaxAttempts = 10

// #region loop
// Loop drives a responder through bounded critique/refine rounds.
type Loop struct {
	caller      *oracle.Caller
	maxAttempts int
	vocab       label.Vocabulary
	logger      zerolog.Logger
}

// New creates a refinement loop. maxAttempts < 0 means DefaultMaxAttempts;
// 0 keeps the initial response without asking the critic.
func New(caller *oracle.Caller, maxAttempts int, vocab label.Vocabulary, logger zerolog.Logger) *Loop {
	if maxAttempts < 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if vocab == nil {
		vocab = label.DefaultVocabulary()
	}
	return &Loop{
		caller:      caller,
		maxAttempts: maxAttempts,
		vocab:       vocab,
		logger:      logger.With().Str("component", "refine").Logger(),
	}
}

// #endregion loop

// #region run
// Run obtains an initial answer from responder, then alternates critic
// critiques and responder refinements until the critic reports a perfect
// score or the attempt budget is spent.
func (l *Loop) Run(ctx context.Context, item, responder, critic string) (Result, error) {
	res := Result{Responder: responder, Critic: critic}

	initial, err := l.caller.Call(ctx, oracle.RoleResponder, responder, "initial", item, prompt.Initial(item))
	if err != nil {
		return Result{}, fmt.Errorf("initial response: %w", err)
	}
	res.Calls = append(res.Calls, initial)

	st := state{phase: PhaseInitial, response: initial.Response, label: l.categorize(initial)}
	res.InitialResponse = st.response
	res.InitialLabel = st.label

	for st.attempts < l.maxAttempts {
		st.attempts++

		crit, err := l.caller.Call(ctx, oracle.RoleCritic, critic, fmt.Sprintf("critique_%d", st.attempts), item, prompt.Critique(item, st.response))
		if err != nil {
			return Result{}, fmt.Errorf("critique %d: %w", st.attempts, err)
		}
		res.Calls = append(res.Calls, crit)
		st.critique = crit.Response
		st.phase = PhaseCritiqued

		score := eval.ScoreCritique(st.critique)
		l.logger.Debug().
			Str("responder", responder).
			Str("critic", critic).
			Int("attempt", st.attempts).
			Str("score", score.Reason).
			Msg("critique")

		// A failed critic call carries ERROR text, never the marker.
		if eval.IsPerfect(st.critique) {
			res.Perfect = true
			st.phase = PhaseTerminated
			break
		}

		ref, err := l.caller.Call(ctx, oracle.RoleResponder, responder, fmt.Sprintf("refinement_%d", st.attempts), item, prompt.Refinement(item, st.response, st.critique))
		if err != nil {
			return Result{}, fmt.Errorf("refinement %d: %w", st.attempts, err)
		}
		res.Calls = append(res.Calls, ref)
		st.response = ref.Response
		st.label = l.categorize(ref)
		st.phase = PhaseRefined
	}

	res.FinalResponse = st.response
	res.FinalLabel = st.label
	res.FinalCritique = st.critique
	res.AttemptsUsed = st.attempts
	res.Rubric = eval.ScoreCritique(st.critique)

	l.logger.Info().
		Str("responder", responder).
		Str("critic", critic).
		Int("attempts", res.AttemptsUsed).
		Bool("perfect", res.Perfect).
		Str("initial", string(res.InitialLabel)).
		Str("final", string(res.FinalLabel)).
		Msg("refinement finished")
	return res, nil
}

func (l *Loop) categorize(c oracle.Call) label.Label {
	if c.Failed {
		return label.Unknown
	}
	return label.Extract(c.Response, l.vocab)
}

// #endregion run
