package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danielpatrickdp/coref-probe/internal/logging"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
	"github.com/danielpatrickdp/coref-probe/internal/refine"
	"github.com/danielpatrickdp/coref-probe/internal/results"
	"github.com/danielpatrickdp/coref-probe/internal/sampler"
)

// #region adaptive
func (o *Orchestrator) runAdaptive(ctx context.Context, items []string) error {
	store, err := results.Open[results.ModelRecords[results.SampleRecord]](filepath.Join(o.opts.OutputDir, AdaptiveFileName))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s := sampler.New(o.newCaller(o.tally), sampler.Config{
		MaxSamples:          o.opts.MaxSamples,
		ConfidenceThreshold: o.opts.ConfidenceThreshold,
		Vocabulary:          o.vocab,
	}, o.logger)

	complete := func(rec results.ModelRecords[results.SampleRecord]) bool {
		return hasModels(rec, o.opts.Models)
	}
	work := func(ctx context.Context, item string, prev results.ModelRecords[results.SampleRecord], tr *transcript) (results.ModelRecords[results.SampleRecord], error) {
		rec := make(results.ModelRecords[results.SampleRecord], len(o.opts.Models))
		for k, v := range prev {
			rec[k] = v
		}
		for _, model := range o.opts.Models {
			if _, done := rec[model]; done {
				continue
			}
			res, err := s.Run(ctx, item, model)
			tr.calls = append(tr.calls, res.Calls...)
			if err != nil {
				return nil, fmt.Errorf("sample %s: %w", model, err)
			}
			rec[model] = results.SampleRecord{
				FinalPrediction: res.FinalLabel,
				Consistency:     res.Consistency,
				Samples:         res.Labels(),
				NumSamples:      res.SampleCount,
			}
			tr.outcomes = append(tr.outcomes, logging.OutcomeEntry{
				Item:    item,
				Model:   model,
				Outcome: "ok",
				Label:   string(res.FinalLabel),
				Detail:  fmt.Sprintf("%s after %d samples (stop=%.4f)", res.StopReason, res.SampleCount, res.StopProbability),
			})
		}
		return rec, nil
	}
	return drive(ctx, o, store, items, complete, work)
}
// #endregion adaptive

// #region fixed
func (o *Orchestrator) runFixed(ctx context.Context, items []string) error {
	store, err := results.Open[results.ModelRecords[results.FixedRecord]](filepath.Join(o.opts.OutputDir, FixedFileName))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s := sampler.New(o.newCaller(o.tally), sampler.Config{
		MaxSamples:          o.opts.MaxSamples,
		ConfidenceThreshold: o.opts.ConfidenceThreshold,
		Vocabulary:          o.vocab,
	}, o.logger)

	complete := func(rec results.ModelRecords[results.FixedRecord]) bool {
		return hasModels(rec, o.opts.Models)
	}
	work := func(ctx context.Context, item string, prev results.ModelRecords[results.FixedRecord], tr *transcript) (results.ModelRecords[results.FixedRecord], error) {
		rec := make(results.ModelRecords[results.FixedRecord], len(o.opts.Models))
		for k, v := range prev {
			rec[k] = v
		}
		for _, model := range o.opts.Models {
			if _, done := rec[model]; done {
				continue
			}
			res, err := s.RunFixed(ctx, item, model, o.opts.FixedSamples)
			tr.calls = append(tr.calls, res.Calls...)
			if err != nil {
				return nil, fmt.Errorf("fixed probe %s: %w", model, err)
			}
			rec[model] = results.FixedRecord{
				ZeroShot: res.ZeroShot,
				CoT:      res.CoT,
				CoTSC:    results.SelfConsistency{MajorityVote: res.MajorityVote, Samples: res.Samples},
			}
			tr.outcomes = append(tr.outcomes, logging.OutcomeEntry{
				Item:    item,
				Model:   model,
				Outcome: "ok",
				Label:   string(res.MajorityVote),
				Detail:  fmt.Sprintf("zero_shot=%s cot=%s", res.ZeroShot, res.CoT),
			})
		}
		return rec, nil
	}
	return drive(ctx, o, store, items, complete, work)
}
// #endregion fixed

// #region refine
func (o *Orchestrator) runRefine(ctx context.Context, items []string) error {
	for _, pair := range o.opts.Pairs {
		if err := o.runPair(ctx, pair, items); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runPair(ctx context.Context, pair Pair, items []string) error {
	path := filepath.Join(o.opts.OutputDir, results.RefineFileName(pair.Responder, pair.Critic))
	store, err := results.Open[results.RefineRecord](path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	pairTally := oracle.NewTally()
	defer o.tally.Merge(pairTally)
	loop := refine.New(o.newCaller(pairTally), o.opts.MaxAttempts, o.vocab, o.logger)

	complete := func(results.RefineRecord) bool { return true }
	work := func(ctx context.Context, item string, _ results.RefineRecord, tr *transcript) (results.RefineRecord, error) {
		res, err := loop.Run(ctx, item, pair.Responder, pair.Critic)
		tr.calls = append(tr.calls, res.Calls...)
		if err != nil {
			return results.RefineRecord{}, fmt.Errorf("refine %s: %w", pair, err)
		}
		tr.outcomes = append(tr.outcomes, logging.OutcomeEntry{
			Item:    item,
			Model:   pair.String(),
			Outcome: "ok",
			Label:   string(res.FinalLabel),
			Detail:  fmt.Sprintf("%d attempts, %s", res.AttemptsUsed, res.Rubric.Reason),
		})
		return results.RefineRecord{
			Responder:         pair.Responder,
			Feedbacker:        pair.Critic,
			InitialResponse:   res.InitialResponse,
			InitialPrediction: res.InitialLabel,
			FinalResponse:     res.FinalResponse,
			FinalPrediction:   res.FinalLabel,
			FinalFeedback:     res.FinalCritique,
		}, nil
	}

	o.logger.Info().Str("pair", pair.String()).Str("output", path).Msg("refinement pair started")
	err = drive(ctx, o, store, items, complete, work)

	for _, e := range pairTally.Entries() {
		o.logger.Info().
			Str("pair", pair.String()).
			Str("model", e.Model).
			Str("role", string(e.Role)).
			Int("queries", e.Count).
			Msg("sampling summary")
	}
	return err
}
// #endregion refine

func hasModels[R any](rec results.ModelRecords[R], models []string) bool {
	for _, m := range models {
		if _, ok := rec[m]; !ok {
			return false
		}
	}
	return true
}
