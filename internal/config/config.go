// Package config loads simcheck settings from defaults, an optional YAML
// file and SIMCHECK_* environment variables, in increasing precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/simerr"
	"github.com/roach88/simcheck/internal/tabular"
)

const (
	// FileName is the config file looked up in the search directory.
	FileName = "simcheck.yaml"

	// EnvPrefix prefixes every environment override, e.g. SIMCHECK_POLICY.
	EnvPrefix = "SIMCHECK"
)

// Config holds every tunable setting.
type Config struct {
	Format      string     `mapstructure:"format"`
	Policy      string     `mapstructure:"policy"`
	Wildcard    string     `mapstructure:"wildcard"`
	EvalTime    float64    `mapstructure:"eval_time"`
	Parallelism int        `mapstructure:"parallelism"`
	DB          string     `mapstructure:"db"`
	BoundsSheet string     `mapstructure:"bounds_sheet"`
	Grid        GridConfig `mapstructure:"grid"`
}

// GridConfig is the time grid range checks simulate over.
type GridConfig struct {
	Start float64 `mapstructure:"start"`
	Stop  float64 `mapstructure:"stop"`
	Step  float64 `mapstructure:"step"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Format:      "text",
		Policy:      string(harness.PolicyRaise),
		Wildcard:    harness.DefaultWildcard,
		EvalTime:    0,
		Parallelism: 1,
		DB:          "",
		BoundsSheet: tabular.BoundsSheet,
		Grid:        GridConfig{Start: 0, Stop: 10, Step: 1},
	}
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set and must exist.
	ConfigFilePath string

	// SearchDir is checked for FileName when no explicit path is given.
	// Defaults to the working directory.
	SearchDir string
}

// Load resolves the configuration and returns it with the path of the file
// that was read ("" when only defaults and environment applied).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("format", defaults.Format)
	v.SetDefault("policy", defaults.Policy)
	v.SetDefault("wildcard", defaults.Wildcard)
	v.SetDefault("eval_time", defaults.EvalTime)
	v.SetDefault("parallelism", defaults.Parallelism)
	v.SetDefault("db", defaults.DB)
	v.SetDefault("bounds_sheet", defaults.BoundsSheet)
	v.SetDefault("grid.start", defaults.Grid.Start)
	v.SetDefault("grid.stop", defaults.Grid.Stop)
	v.SetDefault("grid.step", defaults.Grid.Step)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", simerr.Configuration("config.Load", "config file not found: %s", opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		candidate := filepath.Join(opts.SearchDir, FileName)
		if fileExists(candidate) {
			resolvedPath = candidate
		}
		// No config file: defaults and environment only.
	}

	if resolvedPath != "" {
		v.SetConfigFile(resolvedPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", simerr.Wrap(simerr.CodeConfiguration, "config.Load", fmt.Errorf("%s: %w", resolvedPath, err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", simerr.Wrap(simerr.CodeConfiguration, "config.Load", fmt.Errorf("failed to parse config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolvedPath, nil
}

// Validate checks value constraints the decoder cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Format != "text" && c.Format != "json" {
		errs = append(errs, fmt.Errorf("format must be text or json, got %q", c.Format))
	}
	if _, err := harness.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Wildcard) == "" {
		errs = append(errs, fmt.Errorf("wildcard must not be empty"))
	}
	if math.IsNaN(c.EvalTime) || math.IsInf(c.EvalTime, 0) {
		errs = append(errs, fmt.Errorf("eval_time must be finite"))
	}
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism))
	}
	if !(c.Grid.Step > 0) || c.Grid.Stop < c.Grid.Start {
		errs = append(errs, fmt.Errorf("grid must have step > 0 and stop >= start"))
	}
	if len(errs) > 0 {
		return simerr.Wrap(simerr.CodeConfiguration, "config.Validate", errors.Join(errs...))
	}
	return nil
}

// ErrorPolicy returns the parsed policy. Call after Validate.
func (c *Config) ErrorPolicy() harness.Policy {
	p, _ := harness.ParsePolicy(c.Policy)
	return p
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
