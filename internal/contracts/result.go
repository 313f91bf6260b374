package contracts

import "time"

// OptimizationState is a state of the orchestrator state machine
type OptimizationState string

const (
	StateValidating   OptimizationState = "VALIDATING"
	StateAnalyzing    OptimizationState = "ANALYZING"
	StatePrioritizing OptimizationState = "PRIORITIZING"
	StateForecasting  OptimizationState = "FORECASTING"
	StateAutoApplying OptimizationState = "AUTO_APPLYING"
	StateDone         OptimizationState = "DONE"
	StateFailed       OptimizationState = "FAILED"
)

// ConfidenceInterval is the forecast band of one metric
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ForecastRecord is the advisory performance projection
// ⭐ SSOT: S3 forecaster 출력
type ForecastRecord struct {
	Baseline            map[string]float64            `json:"baseline"`
	Forecasted          map[string]float64            `json:"forecasted"`
	TotalImprovement    map[string]float64            `json:"total_improvement"`
	ConfidenceIntervals map[string]ConfidenceInterval `json:"confidence_intervals"`
	ConfidenceLevel     float64                       `json:"confidence_level"`
	RecommendationIDs   []string                      `json:"recommendation_ids"`
}

// ResultMetadata describes one orchestrator run
type ResultMetadata struct {
	RunID         string              `json:"run_id"`
	ConfigHash    string              `json:"config_hash"`
	StartedAt     time.Time           `json:"started_at"`
	DurationMs    int64               `json:"duration_ms"`
	States        []OptimizationState `json:"states"`
	AdvisorCounts map[string]int      `json:"advisor_counts"`
	KeywordCount  int                 `json:"keyword_count"`
	AdCount       int                 `json:"ad_count"`
	Goals         []string            `json:"goals"`
}

// OptimizationResult is the engine output of one campaign
// ⭐ SSOT: 엔진 출력 계약 (JSON 직렬화 가능, 동작 없음)
type OptimizationResult struct {
	Success              bool              `json:"success"`
	CampaignID           string            `json:"campaign_id"`
	State                OptimizationState `json:"state"`
	OptimizationScore    float64           `json:"optimization_score"` // 0~100
	Recommendations      []Recommendation  `json:"recommendations"`
	PerformanceForecast  ForecastRecord    `json:"performance_forecast"`
	AppliedOptimizations []string          `json:"applied_optimizations"`
	Errors               []string          `json:"errors"`
	Warnings             []string          `json:"warnings"`
	Metadata             ResultMetadata    `json:"metadata"`
}

// NewFailedResult builds the zero score failed result
func NewFailedResult(campaignID string, errs ...string) *OptimizationResult {
	return &OptimizationResult{
		Success:              false,
		CampaignID:           campaignID,
		State:                StateFailed,
		Recommendations:      []Recommendation{},
		AppliedOptimizations: []string{},
		Errors:               append([]string{}, errs...),
		Warnings:             []string{},
		PerformanceForecast:  EmptyForecast(),
	}
}

// EmptyForecast returns a forecast with initialized maps
func EmptyForecast() ForecastRecord {
	return ForecastRecord{
		Baseline:            map[string]float64{},
		Forecasted:          map[string]float64{},
		TotalImprovement:    map[string]float64{},
		ConfidenceIntervals: map[string]ConfidenceInterval{},
		RecommendationIDs:   []string{},
	}
}
