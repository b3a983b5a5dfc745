package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/coref-probe/internal/orchestrator"
	"github.com/danielpatrickdp/coref-probe/internal/results"
)

// #region commands
func newAdaptiveCmd(a *app) *cobra.Command {
	var models []string
	var maxSamples int
	var threshold float64

	cmd := &cobra.Command{
		Use:     "adaptive <items.txt>",
		Short:   "Sample each item until the plurality answer is stable",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Options(orchestrator.ModeAdaptive)
			if len(models) > 0 {
				opts.Models = models
			}
			if cmd.Flags().Changed("max-samples") {
				opts.MaxSamples = maxSamples
			}
			if cmd.Flags().Changed("threshold") {
				opts.ConfidenceThreshold = threshold
			}
			return a.runProbe(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringSliceVar(&models, "models", nil, "models to sample (overrides oracle.models)")
	cmd.Flags().IntVar(&maxSamples, "max-samples", 0, "sampling budget per item and model")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "stop once the stop probability reaches this value")
	return cmd
}

func newRefineCmd(a *app) *cobra.Command {
	var pairs []string
	var maxAttempts int

	cmd := &cobra.Command{
		Use:     "refine <items.txt>",
		Short:   "Run responder/critic critique-refine rounds on each item",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Options(orchestrator.ModeRefine)
			if len(pairs) > 0 {
				parsed, err := parsePairs(pairs)
				if err != nil {
					return err
				}
				opts.Pairs = parsed
			}
			if cmd.Flags().Changed("max-attempts") {
				opts.MaxAttempts = maxAttempts
			}
			return a.runProbe(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringSliceVar(&pairs, "pair", nil, "responder:critic pair, repeatable (overrides refine.pairs)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "critique/refine rounds per item")
	return cmd
}

func newFixedCmd(a *app) *cobra.Command {
	var models []string
	var samples int

	cmd := &cobra.Command{
		Use:     "fixed <items.txt>",
		Short:   "Zero-shot, chain-of-thought and fixed-budget self-consistency probe",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.load,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.Options(orchestrator.ModeFixed)
			if len(models) > 0 {
				opts.Models = models
			}
			if cmd.Flags().Changed("samples") {
				opts.FixedSamples = samples
			}
			return a.runProbe(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringSliceVar(&models, "models", nil, "models to probe (overrides oracle.models)")
	cmd.Flags().IntVar(&samples, "samples", 0, "self-consistency samples per item and model")
	return cmd
}
// #endregion commands

// #region run-probe
func (a *app) runProbe(cmd *cobra.Command, opts orchestrator.Options, itemsPath string) error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	items, err := results.LoadItems(itemsPath)
	if err != nil {
		return err
	}

	client, closeClient, err := a.client()
	if err != nil {
		return err
	}
	defer closeClient()

	ledger, err := a.ledger()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	o, err := orchestrator.New(opts, client, ledger, a.logger)
	if err != nil {
		return err
	}
	sum, err := o.Run(cmd.Context(), items)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "processed=%d skipped=%d failed=%d", sum.Processed, sum.Skipped, sum.Failed)
	if sum.RunID != "" {
		fmt.Fprintf(out, " run=%s", sum.RunID)
	}
	fmt.Fprintln(out)
	for _, e := range sum.Tally {
		fmt.Fprintf(out, "  %s (%s): %d queries\n", e.Model, e.Role, e.Count)
	}
	return err
}

func parsePairs(specs []string) ([]orchestrator.Pair, error) {
	pairs := make([]orchestrator.Pair, 0, len(specs))
	for _, s := range specs {
		responder, critic, ok := strings.Cut(s, ":")
		if !ok || responder == "" || critic == "" {
			return nil, fmt.Errorf("pair %q: want responder:critic", s)
		}
		pairs = append(pairs, orchestrator.Pair{Responder: responder, Critic: critic})
	}
	return pairs, nil
}
// #endregion run-probe
