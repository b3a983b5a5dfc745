package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/coref-probe/internal/config"
	"github.com/danielpatrickdp/coref-probe/internal/logging"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
	"github.com/danielpatrickdp/coref-probe/internal/replay"
	"github.com/danielpatrickdp/coref-probe/internal/state"
)

// #region app
// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	outputDir  string
	replayPath string

	cfg    *config.Config
	logger zerolog.Logger
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.outputDir != "" {
		cfg.Output.Dir = a.outputDir
	}

	logger, err := logging.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Console)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// client opens the oracle named by the config: a recorded raw log when
// --replay is given, a remote gRPC oracle when an address is set,
// otherwise the local subprocess.
func (a *app) client() (oracle.Client, func(), error) {
	if a.replayPath != "" {
		rec, err := replay.LoadRecording(a.replayPath)
		if err != nil {
			return nil, nil, err
		}
		c := replay.NewClient(rec)
		a.logger.Info().Str("path", a.replayPath).Int("entries", rec.Len()).Msg("replaying recorded oracle")
		return c, func() {
			sum := c.Summarize()
			a.logger.Info().
				Int("hits", sum.Hits).
				Int("misses", sum.Misses).
				Int("unused", sum.Unused).
				Msg("replay finished")
		}, nil
	}
	if addr := a.cfg.Oracle.Address; addr != "" {
		c, err := oracle.NewGRPCClient(addr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect oracle at %s: %w", addr, err)
		}
		a.logger.Info().Str("address", addr).Msg("using remote oracle")
		return c, func() { c.Close() }, nil
	}
	exec := a.cfg.ExecConfig()
	a.logger.Info().Str("binary", exec.Binary).Strs("args", exec.Args).Msg("using local oracle")
	return oracle.NewExecClient(exec, a.logger), func() {}, nil
}

// ledger opens the run ledger, or returns nil when none is configured.
func (a *app) ledger() (*state.Store, error) {
	if a.cfg.Output.LedgerPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.Output.LedgerPath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	store, err := state.NewStore(a.cfg.Output.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return store, nil
}
// #endregion app

// #region root
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "probe",
		Short:         "Probe a text model for the pronouns it fills into template sentences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./probe.yaml if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&a.outputDir, "output", "", "result directory (overrides output.dir)")
	root.PersistentFlags().StringVar(&a.replayPath, "replay", "", "answer oracle queries from a recorded raw log")

	root.AddCommand(
		newAdaptiveCmd(a),
		newRefineCmd(a),
		newFixedCmd(a),
		newServeCmd(a),
		newInspectCmd(a),
		newInitCmd(),
	)
	return root
}
// #endregion root
