package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/coref-probe/internal/state"
)

// #region inspect-cmd
func newInspectCmd(a *app) *cobra.Command {
	var last int
	var runID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "inspect",
		Short:   "Show recorded runs, oracle call counts and item outcomes",
		Args:    cobra.NoArgs,
		PreRunE: a.load,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.ledger()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("no ledger configured (set output.ledger)")
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				return runDetailMode(out, store, runID, jsonOut)
			}
			return runListMode(out, store, last, jsonOut)
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	cmd.Flags().StringVar(&runID, "run", "", "show one run in detail")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}
// #endregion inspect-cmd

// #region list-mode

type listRow struct {
	RunID      string `json:"run_id"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runListMode(w io.Writer, store *state.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:     r.RunID,
			Mode:      r.Mode,
			Status:    string(r.Status),
			Processed: r.Processed,
			Skipped:   r.Skipped,
			Failed:    r.Failed,
			StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
		if !r.FinishedAt.IsZero() {
			rows[i].FinishedAt = r.FinishedAt.Format("2006-01-02T15:04:05Z")
		}
	}

	if jsonOut {
		return printJSON(w, rows)
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Run", "Mode", "Status", "Processed", "Skipped", "Failed", "Started"})
	for _, r := range rows {
		t.AppendRow(table.Row{shortID(r.RunID), r.Mode, r.Status, r.Processed, r.Skipped, r.Failed, r.StartedAt})
	}
	t.Render()
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	listRow
	Calls    []state.CallCount     `json:"calls"`
	Outcomes []state.OutcomeRecord `json:"outcomes"`
}

func runDetailMode(w io.Writer, store *state.Store, runID string, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	calls, err := store.CallCounts(runID)
	if err != nil {
		return err
	}
	outcomes, err := store.Outcomes(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		listRow: listRow{
			RunID:     run.RunID,
			Mode:      run.Mode,
			Status:    string(run.Status),
			Processed: run.Processed,
			Skipped:   run.Skipped,
			Failed:    run.Failed,
			StartedAt: run.StartedAt.Format("2006-01-02T15:04:05Z"),
		},
		Calls:    calls,
		Outcomes: outcomes,
	}
	if !run.FinishedAt.IsZero() {
		out.FinishedAt = run.FinishedAt.Format("2006-01-02T15:04:05Z")
	}

	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Run:       %s\n", out.RunID)
	fmt.Fprintf(w, "Mode:      %s\n", out.Mode)
	fmt.Fprintf(w, "Status:    %s\n", out.Status)
	fmt.Fprintf(w, "Started:   %s\n", out.StartedAt)
	fmt.Fprintf(w, "Finished:  %s\n", out.FinishedAt)
	fmt.Fprintf(w, "Items:     %d processed, %d skipped, %d failed\n\n", out.Processed, out.Skipped, out.Failed)

	ct := newTable(w)
	ct.SetTitle("Oracle calls")
	ct.AppendHeader(table.Row{"Model", "Role", "Calls", "Failures"})
	total, failures := 0, 0
	for _, c := range calls {
		ct.AppendRow(table.Row{c.Model, c.Role, c.Calls, c.Failures})
		total += c.Calls
		failures += c.Failures
	}
	ct.AppendFooter(table.Row{"", "Total", total, failures})
	ct.Render()

	fmt.Fprintln(w)
	ot := newTable(w)
	ot.SetTitle("Item outcomes")
	ot.AppendHeader(table.Row{"Item", "Model", "Outcome", "Label", "Detail"})
	ot.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 48},
		{Number: 5, WidthMax: 40},
	})
	for _, o := range outcomes {
		ot.AppendRow(table.Row{o.Item, o.Model, o.Outcome, o.Label, o.Detail})
	}
	ot.Render()
	return nil
}

// #endregion detail-mode

// #region output

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
