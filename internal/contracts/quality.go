package contracts

import "time"

// Dimension is one of the 8 quality dimensions
type Dimension string

const (
	DimensionRelevance     Dimension = "relevance"
	DimensionClarity       Dimension = "clarity"
	DimensionCompleteness  Dimension = "completeness"
	DimensionAccuracy      Dimension = "accuracy"
	DimensionConsistency   Dimension = "consistency"
	DimensionEffectiveness Dimension = "effectiveness"
	DimensionCompliance    Dimension = "compliance"
	DimensionPerformance   Dimension = "performance"
)

// AllDimensions lists the dimensions in assessment order
var AllDimensions = []Dimension{
	DimensionRelevance,
	DimensionClarity,
	DimensionCompleteness,
	DimensionAccuracy,
	DimensionConsistency,
	DimensionEffectiveness,
	DimensionCompliance,
	DimensionPerformance,
}

// Level is a quality level
type Level string

const (
	LevelExcellent Level = "EXCELLENT"
	LevelGood      Level = "GOOD"
	LevelFair      Level = "FAIR"
	LevelPoor      Level = "POOR"
	LevelCritical  Level = "CRITICAL"
)

// ClassifyLevel maps a 0~100 score to a level.
// Each band is inclusive at its lower edge: 90 → EXCELLENT, 89.99 → GOOD.
func ClassifyLevel(score float64) Level {
	score = ClampScore(score)
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 75:
		return LevelGood
	case score >= 60:
		return LevelFair
	case score >= 40:
		return LevelPoor
	default:
		return LevelCritical
	}
}

// IsStrength reports GOOD or EXCELLENT
func (l Level) IsStrength() bool {
	return l == LevelExcellent || l == LevelGood
}

// IsWeakness reports POOR or CRITICAL
func (l Level) IsWeakness() bool {
	return l == LevelPoor || l == LevelCritical
}

// QualityMetric is the score of one dimension
type QualityMetric struct {
	Dimension       Dimension              `json:"dimension"`
	Score           float64                `json:"score"` // 0~100
	Level           Level                  `json:"level"`
	Weight          float64                `json:"weight"` // (0,1]
	Details         map[string]interface{} `json:"details"`
	Recommendations []string               `json:"recommendations"`
}

// QualityAssessment is the multi-dimension quality result of one campaign
// ⭐ SSOT: quality assessor 출력 계약
type QualityAssessment struct {
	CampaignID      string          `json:"campaign_id"`
	OverallScore    float64         `json:"overall_score"` // Σ score × weight
	OverallLevel    Level           `json:"overall_level"`
	Metrics         []QualityMetric `json:"metrics"`
	Strengths       []string        `json:"strengths"`
	Weaknesses      []string        `json:"weaknesses"`
	Recommendations []string        `json:"recommendations"`
	AssessedAt      time.Time       `json:"assessed_at"`
}

// Metric returns the metric of a dimension
func (a *QualityAssessment) Metric(d Dimension) (QualityMetric, bool) {
	for _, m := range a.Metrics {
		if m.Dimension == d {
			return m, true
		}
	}
	return QualityMetric{}, false
}
