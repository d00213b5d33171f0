// Package config holds the settings of the gombok command. Settings come from
// GOMBOK_* environment variables; command-line flags override them.
package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
)

// Config is the configuration of the gombok command.
type Config struct {
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON       bool          `env:"LOG_JSON"`
	Providers     []string      `env:"PROVIDERS" envSeparator:","`
	IncludeTests  bool          `env:"INCLUDE_TESTS"`
	OutputDir     string        `env:"OUTPUT_DIR"`
	WatchDebounce time.Duration `env:"WATCH_DEBOUNCE" envDefault:"500ms"`
}

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "GOMBOK_"

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return LoadEnv(nil)
}

// LoadEnv is like Load but reads variables from the given map instead of the
// process environment when it is non-nil.
func LoadEnv(environ map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.Parse(&cfg, opts); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment variables")
	}
	if cfg.WatchDebounce < 0 {
		return nil, errors.Newf("%sWATCH_DEBOUNCE must not be negative: %v", EnvPrefix, cfg.WatchDebounce)
	}
	return &cfg, nil
}

// BindGlobalFlags registers the flags shared by all commands. Flag defaults
// are the current values of cfg, so environment settings show through unless
// a flag is given.
func (c *Config) BindGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logger level (debug, info, warn, error)")
	flags.BoolVar(&c.LogJSON, "json", c.LogJSON, "Write logs as JSON")
	flags.StringSliceVarP(&c.Providers, "providers", "p", c.Providers, "Provider definition files (.yaml, .yml, or .toml)")
}

// BindGenerateFlags registers the flags of the commands that load packages.
func (c *Config) BindGenerateFlags(flags *pflag.FlagSet) {
	flags.BoolVarP(&c.IncludeTests, "include-tests", "t", c.IncludeTests, "Also process test files")
	flags.StringVarP(&c.OutputDir, "output-dir", "o", c.OutputDir,
		"Root directory for output, organized by package path (default: next to the sources)")
}

// BindWatchFlags registers the flags of the watch command.
func (c *Config) BindWatchFlags(flags *pflag.FlagSet) {
	flags.DurationVar(&c.WatchDebounce, "debounce", c.WatchDebounce, "Delay before regenerating after a change")
}
