package contracts

import "sort"

// Priority is the recommendation priority level
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Category is the recommendation category
type Category string

const (
	CategoryKeywordOptimization    Category = "keyword_optimization"
	CategoryQualityImprovement     Category = "quality_improvement"
	CategoryBidOptimization        Category = "bid_optimization"
	CategoryAdOptimization         Category = "ad_optimization"
	CategoryConversionOptimization Category = "conversion_optimization"
	CategoryBiddingStrategy        Category = "bidding_strategy"
	CategoryTargetingOptimization  Category = "targeting_optimization"
	CategoryBudget                 Category = "budget"
	CategoryBudgetOptimization     Category = "budget_optimization"
)

// Effort is the implementation effort of a recommendation
type Effort string

const (
	EffortLow    Effort = "Low"
	EffortMedium Effort = "Medium"
	EffortHigh   Effort = "High"
)

// RiskLevel is the risk of applying a recommendation
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Recommendation is one explainable optimization suggestion
// ⭐ SSOT: S1 advisor → S2 prioritizer → S3 forecaster 전달
type Recommendation struct {
	ID                   string             `json:"id"` // category + entity key 기반, 결정적
	Category             Category           `json:"category"`
	Priority             Priority           `json:"priority"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	ExpectedImpact       string             `json:"expected_impact"`
	ImplementationEffort Effort             `json:"implementation_effort"`
	EstimatedImprovement map[string]float64 `json:"estimated_improvement"` // metric → signed fraction
	ActionItems          []string           `json:"action_items"`
	RiskLevel            RiskLevel          `json:"risk_level"`
	ConfidenceScore      float64            `json:"confidence_score"` // 0~1
	AffectedEntities     []string           `json:"affected_entities"`
	Timeline             string             `json:"timeline"`
	Prerequisites        []string           `json:"prerequisites"`
	PriorityScore        float64            `json:"priority_score"` // prioritizer 가 계산
}

// AddAffected adds entity keys keeping the set sorted and unique
func (r *Recommendation) AddAffected(keys ...string) {
	r.AffectedEntities = MergeSet(r.AffectedEntities, keys...)
}

// MergeSet returns the sorted union of set and items
func MergeSet(set []string, items ...string) []string {
	seen := make(map[string]bool, len(set)+len(items))
	out := make([]string, 0, len(set)+len(items))
	for _, s := range append(append([]string{}, set...), items...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
