package engineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/adpilot/internal/contracts"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.InDelta(t, 1.0, cfg.Quality.Weights.Sum(), 1e-6)
	assert.Empty(t, Warn(cfg))
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, data, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_SampleFile(t *testing.T) {
	path := "../../config/engine.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "MANUAL_CPC", cfg.Bidding.ManualSentinel)
	assert.Equal(t, MustHash(Default()), MustHash(cfg), "sample file mirrors the defaults")
}

func TestParse_PartialOverride(t *testing.T) {
	cfg, err := Parse([]byte(`
thresholds:
  ctr:
    poor: 0.02
    good: 0.03
    excellent: 0.06
orchestrator:
  auto_apply:
    enabled: true
`))
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.Thresholds.CTR.Poor)
	assert.True(t, cfg.Orchestrator.AutoApply.Enabled)
	// 명시되지 않은 값은 기본값 유지
	assert.Equal(t, 0.9, cfg.Orchestrator.AutoApply.ConfidenceThreshold)
	assert.Equal(t, 4.0, cfg.Thresholds.QualityScore.Poor)
}

func TestParse_UnknownFieldFails(t *testing.T) {
	_, err := Parse([]byte("thresholds:\n  ctrr:\n    poor: 0.01\n"))
	require.Error(t, err)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"band out of order", func(c *Config) { c.Thresholds.CTR.Good = 0.001 }, "thresholds.ctr"},
		{"ratio above one", func(c *Config) { c.Thresholds.ImpressionShare.Excellent = 1.5 }, "thresholds.impression_share"},
		{"quality score above ten", func(c *Config) { c.Thresholds.QualityScore.Excellent = 11 }, "thresholds.quality_score"},
		{"weights do not sum", func(c *Config) { c.Quality.Weights.Relevance = 0.30 }, "quality.weights"},
		{"unknown default goal", func(c *Config) { c.Orchestrator.DefaultGoals = []string{"win"} }, "orchestrator.default_goals"},
		{"missing sentinel", func(c *Config) { c.Bidding.ManualSentinel = "" }, "Config.Bidding.ManualSentinel"},
		{"spend ratio above one", func(c *Config) { c.Budget.SpendRatio = 1.2 }, "Config.Budget.SpendRatio"},
		{"zero workers", func(c *Config) { c.Orchestrator.AdvisorWorkers = 0 }, "Config.Orchestrator.AdvisorWorkers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Orchestrator.AutoApply.Enabled = true
	cfg.Orchestrator.AutoApply.ConfidenceThreshold = 0.5
	cfg.Forecast.TopN = 0

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.ElementsMatch(t, []string{"AUTO_APPLY_LOW_CONFIDENCE", "FORECAST_ALL_RECOMMENDATIONS"}, codes)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	h2, _ := Hash(Default())
	assert.Equal(t, h1, h2)

	changed := Default()
	changed.Forecast.Margin = 0.2
	assert.NotEqual(t, h1, MustHash(changed))
}

func TestBand_Rate(t *testing.T) {
	b := Default().Thresholds.CTR
	assert.Equal(t, RatingPoor, b.Rate(0.005))
	assert.Equal(t, RatingFair, b.Rate(0.01))
	assert.Equal(t, RatingGood, b.Rate(0.02))
	assert.Equal(t, RatingExcellent, b.Rate(0.05))
	assert.True(t, b.IsPoor(0.0099))
	assert.False(t, b.IsPoor(0.01))
}

func TestPoints(t *testing.T) {
	p := Default().Priority
	assert.Equal(t, 100.0, p.LevelPoints.For(contracts.PriorityCritical))
	assert.Equal(t, 25.0, p.LevelPoints.For(contracts.PriorityLow))
	assert.Equal(t, 30.0, p.EffortPoints.ForEffort(contracts.EffortLow))
	assert.Equal(t, 5.0, p.RiskPoints.ForRisk(contracts.RiskHigh))
	assert.Equal(t, 0.0, p.RiskPoints.ForRisk("unknown"))
}

func TestLoad_WritesBackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forecast:\n  top_n: 3\n"), 0o600))

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Forecast.TopN)
	assert.Contains(t, string(data), "top_n")
}
