package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/route07/riskcore/pkg/cli/config"
	"github.com/route07/riskcore/pkg/domain/types"
)

func writeTuningFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func loadTuning(t *testing.T, content string) (*config.Tuning, error) {
	t.Helper()
	cfg := config.NewTuningForTest(writeTuningFile(t, content))
	return cfg, cfg.Load()
}

func TestTuningLoad(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		cfg, err := loadTuning(t, `
[ratelimit]
budget = 60
window_seconds = 30
min_delay_seconds = 1

[sweep]
concurrency = 4

[alerts]
min_level = "CRITICAL"
`)
		gt.NoError(t, err)
		gt.N(t, cfg.RateLimit.Budget).Equal(60)
		gt.N(t, cfg.RateLimit.WindowSeconds).Equal(30)
		gt.N(t, cfg.Sweep.Concurrency).Equal(4)
		gt.V(t, cfg.AlertMinLevel(types.RiskLevelHigh)).Equal(types.RiskLevelCritical)
		gt.N(t, cfg.SweepConcurrency(10)).Equal(4)
	})

	t.Run("missing sections keep defaults", func(t *testing.T) {
		cfg, err := loadTuning(t, `
[ratelimit]
budget = 5
`)
		gt.NoError(t, err)
		gt.N(t, cfg.SweepConcurrency(10)).Equal(10)
		gt.V(t, cfg.AlertMinLevel(types.RiskLevelHigh)).Equal(types.RiskLevelHigh)
	})

	t.Run("no file configured is a no-op", func(t *testing.T) {
		var cfg config.Tuning
		gt.NoError(t, cfg.Load())
		gt.N(t, cfg.SweepConcurrency(10)).Equal(10)
	})

	t.Run("invalid alert level is rejected", func(t *testing.T) {
		_, err := loadTuning(t, `
[alerts]
min_level = "EXTREME"
`)
		gt.Error(t, err)
	})

	t.Run("negative budget is rejected", func(t *testing.T) {
		_, err := loadTuning(t, `
[ratelimit]
budget = -1
`)
		gt.Error(t, err)
	})

	t.Run("malformed TOML is rejected", func(t *testing.T) {
		_, err := loadTuning(t, `[ratelimit`)
		gt.Error(t, err)
	})
}

func TestTuningLimiter(t *testing.T) {
	cfg, err := loadTuning(t, `
[ratelimit]
budget = 2
window_seconds = 60
min_delay_seconds = 0
`)
	gt.NoError(t, err)

	limiter := cfg.Limiter(nil)

	start := time.Now()
	gt.NoError(t, limiter.Acquire(t.Context(), types.ProviderWebIntel))
	// First acquisition of a fresh class never waits
	gt.B(t, time.Since(start) < time.Second).True()
}
