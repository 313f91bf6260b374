package engineconfig

import "github.com/wonny/adpilot/internal/contracts"

// Config is the complete tuning of the optimization engine.
// All numbers are defaults, not calibrated business truths; every one can be
// overridden from YAML.
type Config struct {
	Meta         Meta         `yaml:"meta" json:"meta"`
	Thresholds   Thresholds   `yaml:"thresholds" json:"thresholds"`
	Ads          AdLimits     `yaml:"ads" json:"ads"`
	Budget       Budget       `yaml:"budget" json:"budget"`
	Bidding      Bidding      `yaml:"bidding" json:"bidding"`
	Priority     Priority     `yaml:"priority" json:"priority"`
	Forecast     Forecast     `yaml:"forecast" json:"forecast"`
	Quality      Quality      `yaml:"quality" json:"quality"`
	Orchestrator Orchestrator `yaml:"orchestrator" json:"orchestrator"`
}

// Meta 메타 정보
type Meta struct {
	Version string `yaml:"version" json:"version" validate:"required"`
}

// Band holds the poor / good / excellent boundaries of one signal
type Band struct {
	Poor      float64 `yaml:"poor" json:"poor" validate:"gte=0"`
	Good      float64 `yaml:"good" json:"good" validate:"gte=0"`
	Excellent float64 `yaml:"excellent" json:"excellent" validate:"gte=0"`
}

// Rating is the band a metric value falls into
type Rating string

const (
	RatingPoor      Rating = "poor"      // < poor
	RatingFair      Rating = "fair"      // poor ≤ v < good
	RatingGood      Rating = "good"      // good ≤ v < excellent
	RatingExcellent Rating = "excellent" // ≥ excellent
)

// IsPoor reports whether v is strictly below the poor boundary
func (b Band) IsPoor(v float64) bool {
	return v < b.Poor
}

// Rate returns the band of v
func (b Band) Rate(v float64) Rating {
	switch {
	case v < b.Poor:
		return RatingPoor
	case v < b.Good:
		return RatingFair
	case v < b.Excellent:
		return RatingGood
	default:
		return RatingExcellent
	}
}

// Thresholds S1: advisor 규칙 경계값
type Thresholds struct {
	CTR             Band `yaml:"ctr" json:"ctr"`
	QualityScore    Band `yaml:"quality_score" json:"quality_score"`
	ConversionRate  Band `yaml:"conversion_rate" json:"conversion_rate"`
	ImpressionShare Band `yaml:"impression_share" json:"impression_share"`
}

// AdLimits are the asset length limits of the default ad type
type AdLimits struct {
	HeadlineMaxChars    int `yaml:"headline_max_chars" json:"headline_max_chars" validate:"gt=0"`
	DescriptionMaxChars int `yaml:"description_max_chars" json:"description_max_chars" validate:"gt=0"`
	MinHeadlines        int `yaml:"min_headlines" json:"min_headlines" validate:"gte=0"`
	MinDescriptions     int `yaml:"min_descriptions" json:"min_descriptions" validate:"gte=0"`
}

// Budget advisor settings
type Budget struct {
	SpendRatio float64 `yaml:"spend_ratio" json:"spend_ratio" validate:"gt=0,lte=1"` // avg_daily_spend > ratio × budget
}

// Bidding advisor settings
type Bidding struct {
	ManualSentinel string `yaml:"manual_sentinel" json:"manual_sentinel" validate:"required"`
}

// LevelPoints assigns points per priority level
type LevelPoints struct {
	Critical float64 `yaml:"critical" json:"critical" validate:"gte=0"`
	High     float64 `yaml:"high" json:"high" validate:"gte=0"`
	Medium   float64 `yaml:"medium" json:"medium" validate:"gte=0"`
	Low      float64 `yaml:"low" json:"low" validate:"gte=0"`
}

// For returns the points of a priority
func (p LevelPoints) For(priority contracts.Priority) float64 {
	switch priority {
	case contracts.PriorityCritical:
		return p.Critical
	case contracts.PriorityHigh:
		return p.High
	case contracts.PriorityMedium:
		return p.Medium
	case contracts.PriorityLow:
		return p.Low
	default:
		return 0
	}
}

// TriPoints assigns points to a Low / Medium / High scale
type TriPoints struct {
	Low    float64 `yaml:"low" json:"low" validate:"gte=0"`
	Medium float64 `yaml:"medium" json:"medium" validate:"gte=0"`
	High   float64 `yaml:"high" json:"high" validate:"gte=0"`
}

// ForEffort returns the points of an implementation effort
func (p TriPoints) ForEffort(e contracts.Effort) float64 {
	switch e {
	case contracts.EffortLow:
		return p.Low
	case contracts.EffortMedium:
		return p.Medium
	case contracts.EffortHigh:
		return p.High
	default:
		return 0
	}
}

// ForRisk returns the points of a risk level
func (p TriPoints) ForRisk(r contracts.RiskLevel) float64 {
	switch r {
	case contracts.RiskLow:
		return p.Low
	case contracts.RiskMedium:
		return p.Medium
	case contracts.RiskHigh:
		return p.High
	default:
		return 0
	}
}

// Priority S2: priority score 공식 계수
type Priority struct {
	LevelPoints          LevelPoints `yaml:"level_points" json:"level_points"`
	EffortPoints         TriPoints   `yaml:"effort_points" json:"effort_points"`
	RiskPoints           TriPoints   `yaml:"risk_points" json:"risk_points"`
	ConfidenceMultiplier float64     `yaml:"confidence_multiplier" json:"confidence_multiplier" validate:"gte=0"`
	GoalBonus            float64     `yaml:"goal_bonus" json:"goal_bonus" validate:"gte=0"`
}

// Forecast S3: forecaster 설정
type Forecast struct {
	Margin          float64 `yaml:"margin" json:"margin" validate:"gte=0,lt=1"`
	ConfidenceLevel float64 `yaml:"confidence_level" json:"confidence_level" validate:"gt=0,lte=1"`
	TopN            int     `yaml:"top_n" json:"top_n" validate:"gte=0"` // 0 = all
}

// DimensionWeights are the quality dimension weights (sum = 1.0)
type DimensionWeights struct {
	Relevance     float64 `yaml:"relevance" json:"relevance" validate:"gt=0,lte=1"`
	Clarity       float64 `yaml:"clarity" json:"clarity" validate:"gt=0,lte=1"`
	Completeness  float64 `yaml:"completeness" json:"completeness" validate:"gt=0,lte=1"`
	Accuracy      float64 `yaml:"accuracy" json:"accuracy" validate:"gt=0,lte=1"`
	Consistency   float64 `yaml:"consistency" json:"consistency" validate:"gt=0,lte=1"`
	Effectiveness float64 `yaml:"effectiveness" json:"effectiveness" validate:"gt=0,lte=1"`
	Compliance    float64 `yaml:"compliance" json:"compliance" validate:"gt=0,lte=1"`
	Performance   float64 `yaml:"performance" json:"performance" validate:"gt=0,lte=1"`
}

// For returns the weight of a dimension
func (w DimensionWeights) For(d contracts.Dimension) float64 {
	switch d {
	case contracts.DimensionRelevance:
		return w.Relevance
	case contracts.DimensionClarity:
		return w.Clarity
	case contracts.DimensionCompleteness:
		return w.Completeness
	case contracts.DimensionAccuracy:
		return w.Accuracy
	case contracts.DimensionConsistency:
		return w.Consistency
	case contracts.DimensionEffectiveness:
		return w.Effectiveness
	case contracts.DimensionCompliance:
		return w.Compliance
	case contracts.DimensionPerformance:
		return w.Performance
	default:
		return 0
	}
}

// Sum returns the sum of all weights
func (w DimensionWeights) Sum() float64 {
	sum := 0.0
	for _, d := range contracts.AllDimensions {
		sum += w.For(d)
	}
	return sum
}

// Deductions are the per-violation point deductions of the quality rubric
type Deductions struct {
	MissingField      float64 `yaml:"missing_field" json:"missing_field" validate:"gte=0"`           // completeness
	OverlongAsset     float64 `yaml:"overlong_asset" json:"overlong_asset" validate:"gte=0"`         // clarity
	EmptyAsset        float64 `yaml:"empty_asset" json:"empty_asset" validate:"gte=0"`               // clarity
	DuplicateAsset    float64 `yaml:"duplicate_asset" json:"duplicate_asset" validate:"gte=0"`       // clarity
	MetricMismatch    float64 `yaml:"metric_mismatch" json:"metric_mismatch" validate:"gte=0"`       // accuracy
	ImpossibleCounter float64 `yaml:"impossible_counter" json:"impossible_counter" validate:"gte=0"` // accuracy
	DuplicateKeyword  float64 `yaml:"duplicate_keyword" json:"duplicate_keyword" validate:"gte=0"`   // consistency
	MixedDomains      float64 `yaml:"mixed_domains" json:"mixed_domains" validate:"gte=0"`           // consistency
	ZeroBid           float64 `yaml:"zero_bid" json:"zero_bid" validate:"gte=0"`                     // consistency
	Punctuation       float64 `yaml:"punctuation" json:"punctuation" validate:"gte=0"`               // compliance
	Capitalization    float64 `yaml:"capitalization" json:"capitalization" validate:"gte=0"`         // compliance
	Superlative       float64 `yaml:"superlative" json:"superlative" validate:"gte=0"`               // compliance
	InvalidMatchType  float64 `yaml:"invalid_match_type" json:"invalid_match_type" validate:"gte=0"` // consistency

	// performance potential
	NoBiddingStrategy   float64 `yaml:"no_bidding_strategy" json:"no_bidding_strategy" validate:"gte=0"`
	BudgetLimited       float64 `yaml:"budget_limited" json:"budget_limited" validate:"gte=0"`
	PoorQualityScore    float64 `yaml:"poor_quality_score" json:"poor_quality_score" validate:"gte=0"`
	PoorImpressionShare float64 `yaml:"poor_impression_share" json:"poor_impression_share" validate:"gte=0"`
	FewKeywords         float64 `yaml:"few_keywords" json:"few_keywords" validate:"gte=0"`
	FewAds              float64 `yaml:"few_ads" json:"few_ads" validate:"gte=0"`
}

// Quality quality assessor 설정
type Quality struct {
	Weights               DimensionWeights `yaml:"weights" json:"weights"`
	Deductions            Deductions       `yaml:"deductions" json:"deductions"`
	RedesignThreshold     float64          `yaml:"redesign_threshold" json:"redesign_threshold" validate:"gte=0,lte=100"`
	RedesignMinDimensions int              `yaml:"redesign_min_dimensions" json:"redesign_min_dimensions" validate:"gte=0,lte=8"` // strictly more than this many
	MaxRecommendations    int              `yaml:"max_recommendations" json:"max_recommendations" validate:"gt=0"`
}

// AutoApply gates automatic application of recommendations
type AutoApply struct {
	Enabled             bool    `yaml:"enabled" json:"enabled"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold" validate:"gte=0,lte=1"`
}

// Orchestrator brain 설정
type Orchestrator struct {
	MinKeywords    int         `yaml:"min_keywords" json:"min_keywords" validate:"gte=0"`
	MinAds         int         `yaml:"min_ads" json:"min_ads" validate:"gte=0"`
	AdvisorWorkers int         `yaml:"advisor_workers" json:"advisor_workers" validate:"gte=1"`
	DefaultGoals   []string    `yaml:"default_goals" json:"default_goals"`
	AutoApply      AutoApply   `yaml:"auto_apply" json:"auto_apply"`
	ScorePenalties LevelPoints `yaml:"score_penalties" json:"score_penalties"`
}

// Default returns the engine defaults
func Default() *Config {
	return &Config{
		Meta: Meta{Version: "v1"},
		Thresholds: Thresholds{
			CTR:             Band{Poor: 0.01, Good: 0.02, Excellent: 0.05},
			QualityScore:    Band{Poor: 4.0, Good: 6.0, Excellent: 8.0},
			ConversionRate:  Band{Poor: 0.005, Good: 0.02, Excellent: 0.05},
			ImpressionShare: Band{Poor: 0.4, Good: 0.6, Excellent: 0.8},
		},
		Ads: AdLimits{
			HeadlineMaxChars:    30,
			DescriptionMaxChars: 90,
			MinHeadlines:        3,
			MinDescriptions:     2,
		},
		Budget:  Budget{SpendRatio: 0.95},
		Bidding: Bidding{ManualSentinel: "MANUAL_CPC"},
		Priority: Priority{
			LevelPoints:          LevelPoints{Critical: 100, High: 75, Medium: 50, Low: 25},
			EffortPoints:         TriPoints{Low: 30, Medium: 20, High: 10},
			RiskPoints:           TriPoints{Low: 20, Medium: 10, High: 5},
			ConfidenceMultiplier: 50,
			GoalBonus:            25,
		},
		Forecast: Forecast{
			Margin:          0.15,
			ConfidenceLevel: 0.8,
			TopN:            10,
		},
		Quality: Quality{
			Weights: DimensionWeights{
				Relevance:     0.20,
				Clarity:       0.15,
				Completeness:  0.15,
				Accuracy:      0.15,
				Consistency:   0.10,
				Effectiveness: 0.15,
				Compliance:    0.05,
				Performance:   0.05,
			},
			Deductions: Deductions{
				MissingField:      20,
				OverlongAsset:     10,
				EmptyAsset:        5,
				DuplicateAsset:    5,
				MetricMismatch:    20,
				ImpossibleCounter: 30,
				DuplicateKeyword:  10,
				MixedDomains:      15,
				ZeroBid:           5,
				Punctuation:       15,
				Capitalization:    15,
				Superlative:       20,
				InvalidMatchType:  10,

				NoBiddingStrategy:   20,
				BudgetLimited:       15,
				PoorQualityScore:    20,
				PoorImpressionShare: 15,
				FewKeywords:         10,
				FewAds:              10,
			},
			RedesignThreshold:     60,
			RedesignMinDimensions: 3,
			MaxRecommendations:    10,
		},
		Orchestrator: Orchestrator{
			MinKeywords:    5,
			MinAds:         2,
			AdvisorWorkers: 4,
			DefaultGoals:   []string{string(contracts.GoalMaximizeConversions)},
			AutoApply: AutoApply{
				Enabled:             false,
				ConfidenceThreshold: 0.9,
			},
			ScorePenalties: LevelPoints{Critical: 15, High: 10, Medium: 5, Low: 2},
		},
	}
}
