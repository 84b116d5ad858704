package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/ratelimit"
	"github.com/urfave/cli/v3"
)

// Tuning is the optional TOML tuning file covering outbound throttling and
// sweep behavior. Missing sections keep their defaults.
type Tuning struct {
	path string

	RateLimit RateLimitTuning `toml:"ratelimit"`
	Sweep     SweepTuning     `toml:"sweep"`
	Alerts    AlertTuning     `toml:"alerts"`
}

// RateLimitTuning configures the shared outbound throttle, applied to each
// provider class independently
type RateLimitTuning struct {
	Budget          int `toml:"budget"`
	WindowSeconds   int `toml:"window_seconds"`
	MinDelaySeconds int `toml:"min_delay_seconds"`
}

// SweepTuning configures batch assessment
type SweepTuning struct {
	Concurrency int `toml:"concurrency"`
}

// AlertTuning configures out-of-band notification
type AlertTuning struct {
	MinLevel string `toml:"min_level"`
}

// Flags returns CLI flags for the tuning file
func (t *Tuning) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "tuning-file",
			Usage:       "Path to a TOML tuning file (rate limits, sweep concurrency, alerts)",
			Sources:     cli.EnvVars("RISKCORE_TUNING_FILE"),
			Destination: &t.path,
		},
	}
}

// Load reads and validates the tuning file when one is configured
func (t *Tuning) Load() error {
	if t.path == "" {
		return nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(t.path)
	if err != nil {
		return goerr.Wrap(err, "failed to read tuning file", goerr.V("path", t.path))
	}
	if err := toml.Unmarshal(data, t); err != nil {
		return goerr.Wrap(err, "failed to parse TOML tuning file", goerr.V("path", t.path))
	}
	return t.Validate()
}

// Validate checks the loaded values
func (t *Tuning) Validate() error {
	if t.RateLimit.Budget < 0 {
		return goerr.New("ratelimit budget must not be negative", goerr.V("budget", t.RateLimit.Budget))
	}
	if t.RateLimit.WindowSeconds < 0 {
		return goerr.New("ratelimit window must not be negative", goerr.V("window_seconds", t.RateLimit.WindowSeconds))
	}
	if t.RateLimit.MinDelaySeconds < 0 {
		return goerr.New("ratelimit min delay must not be negative", goerr.V("min_delay_seconds", t.RateLimit.MinDelaySeconds))
	}
	if t.Sweep.Concurrency < 0 {
		return goerr.New("sweep concurrency must not be negative", goerr.V("concurrency", t.Sweep.Concurrency))
	}
	if t.Alerts.MinLevel != "" {
		if _, err := types.ParseRiskLevel(t.Alerts.MinLevel); err != nil {
			return goerr.Wrap(err, "invalid alert min level", goerr.V("min_level", t.Alerts.MinLevel))
		}
	}
	return nil
}

// Limiter builds the outbound rate limiter from the tuning values
func (t *Tuning) Limiter(m *metrics.Metrics) *ratelimit.Limiter {
	opts := []ratelimit.Option{ratelimit.WithMetrics(m)}
	if t.RateLimit.Budget > 0 {
		opts = append(opts, ratelimit.WithBudget(t.RateLimit.Budget))
	}
	if t.RateLimit.WindowSeconds > 0 {
		opts = append(opts, ratelimit.WithWindow(time.Duration(t.RateLimit.WindowSeconds)*time.Second))
	}
	if t.RateLimit.MinDelaySeconds > 0 {
		opts = append(opts, ratelimit.WithMinDelay(time.Duration(t.RateLimit.MinDelaySeconds)*time.Second))
	}
	return ratelimit.New(opts...)
}

// SweepConcurrency returns the configured concurrency, or def when unset
func (t *Tuning) SweepConcurrency(def int) int {
	if t.Sweep.Concurrency > 0 {
		return t.Sweep.Concurrency
	}
	return def
}

// AlertMinLevel returns the configured alert threshold, or def when unset
func (t *Tuning) AlertMinLevel(def types.RiskLevel) types.RiskLevel {
	if t.Alerts.MinLevel == "" {
		return def
	}
	level, err := types.ParseRiskLevel(t.Alerts.MinLevel)
	if err != nil {
		return def
	}
	return level
}
