package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// #region config
// ModelPlaceholder in ExecConfig.Args is replaced by the request's model.
const ModelPlaceholder = "{model}"

// ExecConfig describes the external text-generation process.
type ExecConfig struct {
	Binary string
	Args   []string
}

// DefaultExecConfig runs `ollama run <model>`.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		Binary: "ollama",
		Args:   []string{"run", ModelPlaceholder},
	}
}

// #endregion config

// #region client
// ExecClient sends the prompt on stdin of a child process and reads the
// response from its stdout.
type ExecClient struct {
	cfg    ExecConfig
	logger zerolog.Logger
}

// NewExecClient creates a subprocess oracle.
func NewExecClient(cfg ExecConfig, logger zerolog.Logger) *ExecClient {
	if cfg.Binary == "" {
		cfg = DefaultExecConfig()
	}
	return &ExecClient{
		cfg:    cfg,
		logger: logger.With().Str("component", "oracle-exec").Logger(),
	}
}

// Query runs the process once. Timeout, non-zero exit and launch errors
// are all reported as *Failure.
func (c *ExecClient) Query(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	args := make([]string, len(c.cfg.Args))
	for i, a := range c.cfg.Args {
		args[i] = strings.ReplaceAll(a, ModelPlaceholder, req.Model)
	}

	cmd := exec.CommandContext(ctx, c.cfg.Binary, args...)
	cmd.Stdin = strings.NewReader(req.Prompt)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		f := &Failure{Model: req.Model, Err: err}
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			f.Reason = fmt.Sprintf("timed out after %s", req.Timeout)
			f.Err = ctx.Err()
		case ctx.Err() != nil:
			f.Reason = "cancelled"
			f.Err = ctx.Err()
		case errors.As(err, &exitErr):
			f.Reason = fmt.Sprintf("exit status %d", exitErr.ExitCode())
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				f.Reason += ": " + msg
			}
		default:
			f.Reason = fmt.Sprintf("launch %s: %v", c.cfg.Binary, err)
		}
		c.logger.Debug().
			Str("model", req.Model).
			Dur("elapsed", elapsed).
			Str("reason", f.Reason).
			Msg("oracle process failed")
		return "", f
	}

	c.logger.Debug().
		Str("model", req.Model).
		Dur("elapsed", elapsed).
		Int("bytes", stdout.Len()).
		Msg("oracle process finished")

	return strings.TrimSpace(stdout.String()), nil
}

// #endregion client
