package forecast

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
)

// Forecaster 성과 예측기 (S3)
// forecasted = baseline × (1 + Σ improvement × confidence)
type Forecaster struct {
	config engineconfig.Forecast
	log    zerolog.Logger
}

// NewForecaster 새 예측기 생성
func NewForecaster(cfg *engineconfig.Config, log zerolog.Logger) *Forecaster {
	return &Forecaster{
		config: cfg.Forecast,
		log:    log.With().Str("component", "forecast.forecaster").Logger(),
	}
}

// Forecast projects campaign metrics for the given recommendations.
// Every recommendation counts; metrics that no recommendation touches are
// left out of the record.
func (f *Forecaster) Forecast(baseline contracts.CanonicalMetrics, recs []contracts.Recommendation) contracts.ForecastRecord {
	values := make(map[string]float64)
	for _, r := range recs {
		for name := range r.EstimatedImprovement {
			if v, ok := baseline.Value(name); ok {
				values[name] = v
			}
		}
	}
	return f.Project(values, recs)
}

// Project is Forecast over an explicit baseline map.
// Metric names outside the canonical set are ignored; a known metric missing
// from baseline projects from 0.
func (f *Forecaster) Project(baseline map[string]float64, recs []contracts.Recommendation) contracts.ForecastRecord {
	record := contracts.EmptyForecast()
	record.ConfidenceLevel = f.config.ConfidenceLevel

	// 1. Σ improvement × confidence (추천 순서대로 합산)
	for _, r := range recs {
		conf := contracts.ClampRatio(r.ConfidenceScore)
		for _, name := range sortedKeys(r.EstimatedImprovement) {
			if _, known := (contracts.CanonicalMetrics{}).Value(name); !known {
				f.log.Debug().Str("metric", name).Str("recommendation_id", r.ID).Msg("Unknown metric ignored")
				continue
			}
			record.TotalImprovement[name] += r.EstimatedImprovement[name] * conf
		}
		record.RecommendationIDs = append(record.RecommendationIDs, r.ID)
	}

	// 2. forecasted + interval
	for name, total := range record.TotalImprovement {
		base := baseline[name]
		forecasted := contracts.ClampMetric(name, base*(1+total))

		record.Baseline[name] = base
		record.Forecasted[name] = forecasted
		record.ConfidenceIntervals[name] = contracts.ConfidenceInterval{
			Lower: contracts.ClampMetric(name, forecasted*(1-f.config.Margin)),
			Upper: contracts.ClampMetric(name, forecasted*(1+f.config.Margin)),
		}
	}

	f.log.Debug().
		Int("recommendations", len(recs)).
		Int("metrics", len(record.Forecasted)).
		Msg("Forecast completed")

	return record
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
