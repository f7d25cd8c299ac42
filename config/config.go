// Package config loads runtime settings from the environment.
package config

import (
	"flag"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/wippyai/wasm-fork/errors"
)

// Config holds every runtime setting. Environment variables provide the base
// values; command-line flags bound with BindFlags override them.
type Config struct {
	LogLevel         string        `env:"WASM_FORK_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat        string        `env:"WASM_FORK_LOG_FORMAT" envDefault:"auto" validate:"oneof=auto console json"`
	ExitPolicy       string        `env:"WASM_FORK_EXIT_POLICY" envDefault:"wait" validate:"oneof=wait abandon"`
	Namespace        string        `env:"WASM_FORK_NAMESPACE" envDefault:"env" validate:"required"`
	DrainTimeout     time.Duration `env:"WASM_FORK_DRAIN_TIMEOUT" envDefault:"0s" validate:"gte=0"`
	MemoryLimitPages uint32        `env:"WASM_FORK_MEMORY_LIMIT_PAGES" envDefault:"0" validate:"lte=65535"`
}

var validate = validator.New()

// Load reads the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads environ instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "invalid configuration")
	}
	return nil
}

// BindFlags registers a flag per setting on fs, defaulting to the current
// values. Call Validate after fs.Parse.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: auto, console, json")
	fs.StringVar(&c.ExitPolicy, "exit-policy", c.ExitPolicy, "what to do with running forks after run returns: wait, abandon")
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "bound on waiting for forks (0 waits forever)")
	fs.StringVar(&c.Namespace, "namespace", c.Namespace, "import namespace of the host functions")
	fs.Func("memory-limit", "max memory per instance in 64KiB pages (0 = engine default)", func(s string) error {
		pages, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return err
		}
		c.MemoryLimitPages = uint32(pages)
		return nil
	})
}
