package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/logging"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
	"github.com/danielpatrickdp/coref-probe/internal/results"
	"github.com/danielpatrickdp/coref-probe/internal/state"
)

// #region orchestrator-struct
// Orchestrator walks the item sequence, runs the configured probe on each
// item and checkpoints the aggregate after every one.
type Orchestrator struct {
	opts     Options
	vocab    label.Vocabulary
	client   oracle.Client
	throttle *oracle.Throttle
	ledger   *state.Store
	logger   zerolog.Logger

	tally  *oracle.Tally
	rawLog *results.RawLog
	runID  string
	sum    Summary
}
// #endregion orchestrator-struct

// #region constructor
// New validates opts and wires the orchestrator. ledger may be nil.
func New(opts Options, client oracle.Client, ledger *state.Store, logger zerolog.Logger) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("invalid options: nil oracle client")
	}

	vocab := label.DefaultVocabulary()
	if len(opts.Vocabulary) > 0 {
		v, err := label.ParseVocabulary(opts.Vocabulary)
		if err != nil {
			return nil, fmt.Errorf("invalid options: %w", err)
		}
		vocab = v
	}

	return &Orchestrator{
		opts:     opts,
		vocab:    vocab,
		client:   client,
		throttle: oracle.NewThrottle(opts.RequestDelay),
		ledger:   ledger,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}, nil
}
// #endregion constructor

// #region run
// Run processes items in order. It stops early only on a persist failure
// (wrapping ErrPersist) or a done context; per-item failures are counted
// in the summary.
func (o *Orchestrator) Run(ctx context.Context, items []string) (Summary, error) {
	o.tally = oracle.NewTally()
	o.sum = Summary{}

	rawPath := o.opts.RawLogPath
	if rawPath == "" {
		rawPath = filepath.Join(o.opts.OutputDir, RawLogFileName)
	}
	rawLog, err := results.OpenRawLog(rawPath)
	if err != nil {
		return o.sum, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	o.rawLog = rawLog
	defer rawLog.Close()

	o.beginLedger()
	o.logger.Info().
		Str("mode", string(o.opts.Mode)).
		Int("items", len(items)).
		Str("run_id", o.runID).
		Msg("run started")

	switch o.opts.Mode {
	case ModeAdaptive:
		err = o.runAdaptive(ctx, items)
	case ModeRefine:
		err = o.runRefine(ctx, items)
	case ModeFixed:
		err = o.runFixed(ctx, items)
	}

	o.sum.RunID = o.runID
	o.sum.Tally = o.tally.Entries()
	o.finishLedger(err)

	ev := o.logger.Info()
	if err != nil {
		ev = o.logger.Error().Err(err)
	}
	ev.Int("processed", o.sum.Processed).
		Int("skipped", o.sum.Skipped).
		Int("failed", o.sum.Failed).
		Int("oracle_calls", o.tally.Total()).
		Msg("run finished")
	return o.sum, err
}
// #endregion run

// #region caller
func (o *Orchestrator) newCaller(tally *oracle.Tally) *oracle.Caller {
	return &oracle.Caller{
		Client:   o.client,
		Throttle: o.throttle,
		Tally:    tally,
		Timeout:  o.opts.Timeout,
		Logger:   o.logger,
	}
}
// #endregion caller

// #region drive
// transcript collects what one item produced, kept even when the item fails.
type transcript struct {
	calls    []oracle.Call
	outcomes []logging.OutcomeEntry
}

// drive is the per-item loop shared by every mode. complete reports whether
// a stored record needs no more work; work computes the record for an item,
// starting from any partial record found in the store.
func drive[R any](
	ctx context.Context,
	o *Orchestrator,
	store *results.Store[R],
	items []string,
	complete func(R) bool,
	work func(ctx context.Context, item string, prev R, tr *transcript) (R, error),
) error {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		prev, ok := store.Get(item)
		if ok && complete(prev) {
			o.sum.Skipped++
			o.logger.Debug().Str("item", item).Msg("already complete, skipping")
			continue
		}

		tr := &transcript{}
		rec, err := guard(func() (R, error) { return work(ctx, item, prev, tr) })

		if err == nil {
			store.Put(item, rec)
			if serr := store.Save(); serr != nil {
				return fmt.Errorf("%w: %w", ErrPersist, serr)
			}
		}
		if rerr := o.rawLog.Append(tr.calls); rerr != nil {
			return fmt.Errorf("%w: %w", ErrPersist, rerr)
		}
		o.recordCalls(item, tr.calls)

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			ie := &ItemError{Item: item, Err: err}
			o.sum.Failed++
			o.logger.Error().Err(ie).Int("index", i+1).Msg("item failed, continuing")
			o.recordOutcome(logging.OutcomeEntry{Item: item, Outcome: "failed", Detail: err.Error()})
		} else {
			o.sum.Processed++
			for _, oc := range tr.outcomes {
				o.recordOutcome(oc)
			}
			o.logger.Info().
				Int("index", i+1).
				Int("total", len(items)).
				Int("calls", len(tr.calls)).
				Str("item", item).
				Msg("item done")
		}

		if i < len(items)-1 {
			if err := sleepCtx(ctx, o.opts.ItemDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// guard turns a panic inside fn into an error so one bad item cannot end the run.
func guard[R any](fn func() (R, error)) (rec R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
// #endregion drive

// #region ledger
func (o *Orchestrator) beginLedger() {
	o.runID = ""
	if o.ledger == nil {
		return
	}
	cfg, _ := json.Marshal(o.opts)
	run, err := o.ledger.BeginRun(string(o.opts.Mode), string(cfg))
	if err != nil {
		o.logger.Warn().Err(err).Msg("ledger unavailable, continuing without it")
		return
	}
	o.runID = run.RunID
}

func (o *Orchestrator) finishLedger(runErr error) {
	if o.ledger == nil || o.runID == "" {
		return
	}
	status := state.RunCompleted
	if runErr != nil {
		status = state.RunAborted
	}
	if err := o.ledger.FinishRun(o.runID, status, o.sum.Processed, o.sum.Skipped, o.sum.Failed); err != nil {
		o.logger.Warn().Err(err).Msg("ledger finish failed")
	}
}

func (o *Orchestrator) recordCalls(item string, calls []oracle.Call) {
	if o.ledger == nil || o.runID == "" {
		return
	}
	for _, c := range calls {
		err := logging.LogCall(o.ledger.DB(), logging.CallEntry{
			RunID:   o.runID,
			Item:    item,
			Model:   c.Model,
			Role:    string(c.Role),
			Mode:    c.Mode,
			Failed:  c.Failed,
			Latency: c.Latency,
		})
		if err != nil {
			o.logger.Warn().Err(err).Msg("ledger call write failed")
			return
		}
	}
}

func (o *Orchestrator) recordOutcome(entry logging.OutcomeEntry) {
	if o.ledger == nil || o.runID == "" {
		return
	}
	entry.RunID = o.runID
	if err := logging.LogOutcome(o.ledger.DB(), entry); err != nil {
		o.logger.Warn().Err(err).Msg("ledger outcome write failed")
	}
}
// #endregion ledger
