package sampler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
	"github.com/danielpatrickdp/coref-probe/internal/prompt"
)

// #region sampler-struct
// Sampler draws repeated answers for one item and stops as soon as the
// plurality answer is stable enough.
type Sampler struct {
	caller *oracle.Caller
	cfg    Config
	logger zerolog.Logger
}

// New creates a sampler. Zero config fields fall back to DefaultConfig.
func New(caller *oracle.Caller, cfg Config, logger zerolog.Logger) *Sampler {
	def := DefaultConfig()
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = def.MaxSamples
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = def.Vocabulary
	}
	return &Sampler{
		caller: caller,
		cfg:    cfg,
		logger: logger.With().Str("component", "sampler").Logger(),
	}
}

// #endregion sampler-struct

// #region run
// Run samples model on item until the stop probability reaches the
// threshold with a known plurality, or the budget is spent. Oracle
// failures count as Unknown samples. Only a done context aborts the run.
func (s *Sampler) Run(ctx context.Context, item, model string) (Result, error) {
	p := prompt.Adaptive(item)
	counts := NewCounts()
	res := Result{Counts: counts}

	for i := 1; i <= s.cfg.MaxSamples; i++ {
		call, err := s.caller.Call(ctx, oracle.RoleSampler, model, fmt.Sprintf("adaptive_sample_%d", i), item, p)
		if err != nil {
			return Result{}, fmt.Errorf("adaptive sample %d: %w", i, err)
		}
		res.Calls = append(res.Calls, call)

		l := label.Unknown
		if !call.Failed {
			l = label.Extract(call.Response, s.cfg.Vocabulary)
		}
		res.Samples = append(res.Samples, Sample{Label: l, RawText: call.Response, Model: model, Round: i})
		counts.Add(l)

		plural, pluralCount := counts.Plurality()
		res.StopProbability = StopProbability(counts, s.cfg.MaxSamples)

		s.logger.Debug().
			Str("model", model).
			Int("sample", i).
			Str("label", string(l)).
			Str("plurality", string(plural)).
			Float64("consistency", float64(pluralCount)/float64(counts.Total())).
			Float64("stop_prob", res.StopProbability).
			Msg("adaptive sample")

		if res.StopProbability >= s.cfg.ConfidenceThreshold && plural != label.Unknown {
			res.StopReason = stopReason(counts, s.cfg.MaxSamples)
			break
		}
	}

	if res.StopReason == "" {
		res.StopReason = StopBudget
	}
	plural, pluralCount := counts.Plurality()
	res.FinalLabel = plural
	res.SampleCount = counts.Total()
	res.Consistency = float64(pluralCount) / float64(res.SampleCount)
	return res, nil
}

// #endregion run

// #region run-fixed
// RunFixed issues one zero-shot query, one chain-of-thought query and n
// numbered chain-of-thought samples, then majority-votes the samples
// ignoring Unknown answers.
func (s *Sampler) RunFixed(ctx context.Context, item, model string, n int) (FixedResult, error) {
	var res FixedResult

	ask := func(mode, p string) (label.Label, error) {
		call, err := s.caller.Call(ctx, oracle.RoleSampler, model, mode, item, p)
		if err != nil {
			return label.Unknown, fmt.Errorf("%s: %w", mode, err)
		}
		res.Calls = append(res.Calls, call)
		if call.Failed {
			return label.Unknown, nil
		}
		return label.Extract(call.Response, s.cfg.Vocabulary), nil
	}

	var err error
	if res.ZeroShot, err = ask("zero_shot", prompt.ZeroShot(item)); err != nil {
		return FixedResult{}, err
	}
	if res.CoT, err = ask("cot", prompt.CoT(item)); err != nil {
		return FixedResult{}, err
	}
	for i := 1; i <= n; i++ {
		l, err := ask(fmt.Sprintf("cot_sc_sample_%d", i), prompt.CoTSample(item, i))
		if err != nil {
			return FixedResult{}, err
		}
		res.Samples = append(res.Samples, l)
	}
	res.MajorityVote = MajorityKnown(res.Samples)

	s.logger.Debug().
		Str("model", model).
		Str("zero_shot", string(res.ZeroShot)).
		Str("cot", string(res.CoT)).
		Str("majority", string(res.MajorityVote)).
		Msg("fixed probe")
	return res, nil
}

// #endregion run-fixed
