// Package config loads probe settings from YAML, PROBE_* environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/coref-probe/internal/label"
	"github.com/danielpatrickdp/coref-probe/internal/oracle"
	"github.com/danielpatrickdp/coref-probe/internal/orchestrator"
)

// #region types

// Config holds the complete probe configuration.
type Config struct {
	Oracle   OracleConfig   `mapstructure:"oracle" yaml:"oracle"`
	Sampling SamplingConfig `mapstructure:"sampling" yaml:"sampling"`
	Refine   RefineConfig   `mapstructure:"refine" yaml:"refine"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// OracleConfig selects and bounds the external model.
type OracleConfig struct {
	Models       []string      `mapstructure:"models" yaml:"models"`
	Binary       string        `mapstructure:"binary" yaml:"binary"`
	Args         []string      `mapstructure:"args" yaml:"args"`
	Address      string        `mapstructure:"address" yaml:"address,omitempty"` // gRPC oracle; empty = run Binary locally
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestDelay time.Duration `mapstructure:"request_delay" yaml:"request_delay"`
	ItemDelay    time.Duration `mapstructure:"item_delay" yaml:"item_delay"`
}

// SamplingConfig bounds the adaptive and fixed samplers.
type SamplingConfig struct {
	MaxSamples          int      `mapstructure:"max_samples" yaml:"max_samples"`
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	FixedSamples        int      `mapstructure:"fixed_samples" yaml:"fixed_samples"`
	Vocabulary          []string `mapstructure:"vocabulary" yaml:"vocabulary,omitempty"`
}

// RefineConfig configures the critique/refine loop.
type RefineConfig struct {
	MaxAttempts int                 `mapstructure:"max_attempts" yaml:"max_attempts"`
	Pairs       []orchestrator.Pair `mapstructure:"pairs" yaml:"pairs"`
}

// OutputConfig places result files.
type OutputConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir"`
	RawLog     string `mapstructure:"raw_log" yaml:"raw_log,omitempty"`
	LedgerPath string `mapstructure:"ledger" yaml:"ledger,omitempty"` // empty = no ledger
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// #endregion

// #region defaults

// DefaultConfig mirrors the settings the published runs used.
func DefaultConfig() *Config {
	exec := oracle.DefaultExecConfig()
	return &Config{
		Oracle: OracleConfig{
			Models:       []string{"llama3", "mistral"},
			Binary:       exec.Binary,
			Args:         exec.Args,
			Timeout:      60 * time.Second,
			RequestDelay: 500 * time.Millisecond,
			ItemDelay:    time.Second,
		},
		Sampling: SamplingConfig{
			MaxSamples:          10,
			ConfidenceThreshold: 0.95,
			FixedSamples:        10,
		},
		Refine: RefineConfig{
			MaxAttempts: 10,
			Pairs: []orchestrator.Pair{
				{Responder: "llama3", Critic: "llama3"},
				{Responder: "mistral", Critic: "mistral"},
				{Responder: "llama3", Critic: "mistral"},
				{Responder: "mistral", Critic: "llama3"},
			},
		},
		Output: OutputConfig{
			Dir:        "results",
			LedgerPath: "results/ledger.db",
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("oracle.models", d.Oracle.Models)
	v.SetDefault("oracle.binary", d.Oracle.Binary)
	v.SetDefault("oracle.args", d.Oracle.Args)
	v.SetDefault("oracle.address", d.Oracle.Address)
	v.SetDefault("oracle.timeout", d.Oracle.Timeout)
	v.SetDefault("oracle.request_delay", d.Oracle.RequestDelay)
	v.SetDefault("oracle.item_delay", d.Oracle.ItemDelay)
	v.SetDefault("sampling.max_samples", d.Sampling.MaxSamples)
	v.SetDefault("sampling.confidence_threshold", d.Sampling.ConfidenceThreshold)
	v.SetDefault("sampling.fixed_samples", d.Sampling.FixedSamples)
	v.SetDefault("sampling.vocabulary", d.Sampling.Vocabulary)
	v.SetDefault("refine.max_attempts", d.Refine.MaxAttempts)
	v.SetDefault("refine.pairs", d.Refine.Pairs)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.raw_log", d.Output.RawLog)
	v.SetDefault("output.ledger", d.Output.LedgerPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
}

// #endregion

// #region load

// Load reads configuration from path (optional), PROBE_* environment
// variables and defaults, in increasing order of precedence below env.
// An empty path searches ./probe.yaml; a missing search file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("probe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// comma-separated env lists arrive as one element
	cfg.Oracle.Models = splitList(cfg.Oracle.Models)
	cfg.Sampling.Vocabulary = splitList(cfg.Sampling.Vocabulary)
	return &cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}

// #endregion

// #region validate

// Validate rejects configurations no run can honour.
func (c *Config) Validate() error {
	if len(c.Oracle.Models) == 0 {
		return fmt.Errorf("oracle.models must not be empty")
	}
	if c.Oracle.Address == "" && c.Oracle.Binary == "" {
		return fmt.Errorf("oracle.binary is required without oracle.address")
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive, got %s", c.Oracle.Timeout)
	}
	if c.Oracle.RequestDelay < 0 || c.Oracle.ItemDelay < 0 {
		return fmt.Errorf("oracle delays must not be negative")
	}
	if c.Sampling.MaxSamples < 1 {
		return fmt.Errorf("sampling.max_samples must be >= 1, got %d", c.Sampling.MaxSamples)
	}
	if c.Sampling.ConfidenceThreshold <= 0 || c.Sampling.ConfidenceThreshold > 1 {
		return fmt.Errorf("sampling.confidence_threshold must be in (0, 1], got %v", c.Sampling.ConfidenceThreshold)
	}
	if c.Sampling.FixedSamples < 1 {
		return fmt.Errorf("sampling.fixed_samples must be >= 1, got %d", c.Sampling.FixedSamples)
	}
	if len(c.Sampling.Vocabulary) > 0 {
		if _, err := label.ParseVocabulary(c.Sampling.Vocabulary); err != nil {
			return fmt.Errorf("sampling.vocabulary: %w", err)
		}
	}
	if c.Refine.MaxAttempts < 0 {
		return fmt.Errorf("refine.max_attempts must be >= 0, got %d", c.Refine.MaxAttempts)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	return nil
}

// #endregion

// #region options

// Options builds the immutable orchestrator options for mode.
func (c *Config) Options(mode orchestrator.Mode) orchestrator.Options {
	return orchestrator.Options{
		Mode:                mode,
		Models:              append([]string(nil), c.Oracle.Models...),
		Pairs:               append([]orchestrator.Pair(nil), c.Refine.Pairs...),
		Vocabulary:          append([]string(nil), c.Sampling.Vocabulary...),
		MaxSamples:          c.Sampling.MaxSamples,
		ConfidenceThreshold: c.Sampling.ConfidenceThreshold,
		MaxAttempts:         c.Refine.MaxAttempts,
		FixedSamples:        c.Sampling.FixedSamples,
		Timeout:             c.Oracle.Timeout,
		RequestDelay:        c.Oracle.RequestDelay,
		ItemDelay:           c.Oracle.ItemDelay,
		OutputDir:           c.Output.Dir,
		RawLogPath:          c.Output.RawLog,
	}
}

// ExecConfig returns the subprocess oracle settings.
func (c *Config) ExecConfig() oracle.ExecConfig {
	return oracle.ExecConfig{Binary: c.Oracle.Binary, Args: append([]string(nil), c.Oracle.Args...)}
}

// #endregion

// #region write

// Write emits c as YAML at path, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #endregion
