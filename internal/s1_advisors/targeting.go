package s1_advisors

import (
	"context"
	"fmt"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

var (
	targetingNoAudiences = ruleSpec{
		Rule:        "targeting_no_audiences",
		Category:    contracts.CategoryTargetingOptimization,
		Priority:    contracts.PriorityMedium,
		Effort:      contracts.EffortLow,
		Risk:        contracts.RiskLow,
		Confidence:  0.7,
		Improvement: map[string]float64{contracts.MetricCTR: 0.1, contracts.MetricConversionRate: 0.1},
		Timeline:    "1-2 weeks",
	}
	targetingLowConversionRate = ruleSpec{
		Rule:     "targeting_low_conversion_rate",
		Category: contracts.CategoryTargetingOptimization,
		Priority: contracts.PriorityHigh,
		Effort:   contracts.EffortMedium,
		Risk:     contracts.RiskMedium,
		Improvement: map[string]float64{
			contracts.MetricConversionRate:    0.2,
			contracts.MetricCostPerConversion: -0.1,
		},
		Confidence: 0.7,
		Timeline:   "2-4 weeks",
	}
)

// TargetingAdvisor checks audience setup and campaign level conversion rate
type TargetingAdvisor struct {
	band   engineconfig.Band
	logger *logger.Logger
}

// NewTargetingAdvisor creates a new targeting advisor
func NewTargetingAdvisor(cfg *engineconfig.Config, log *logger.Logger) *TargetingAdvisor {
	return &TargetingAdvisor{
		band:   cfg.Thresholds.ConversionRate,
		logger: log.WithField("advisor", "targeting_advisor"),
	}
}

// Name returns the advisor name
func (a *TargetingAdvisor) Name() string { return "targeting_advisor" }

// Analyze evaluates the campaign targeting block
func (a *TargetingAdvisor) Analyze(_ context.Context, in *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	var recs []contracts.Recommendation
	key := contracts.CampaignKey(in.Campaign.CampaignID)

	t := in.Campaign.Targeting
	if t == nil || len(t.Audiences) == 0 {
		recs = append(recs, targetingNoAudiences.build(finding{
			EntityKey:   key,
			Title:       "Add audience segments",
			Description: "The campaign has no audience segments, so bids cannot be adjusted for users who are more likely to convert.",
			Impact:      "Better bid decisions for high value users",
			Actions: []string{
				"Add remarketing and in-market audiences in observation mode",
				"Apply bid adjustments once segments collect data",
			},
		}))
	}

	m := in.Metrics
	if m.Clicks > 0 && a.band.IsPoor(m.ConversionRate) {
		recs = append(recs, targetingLowConversionRate.build(finding{
			EntityKey: key,
			Title:     "Narrow targeting to converting segments",
			Description: fmt.Sprintf("The campaign converts %s of %d clicks, below the %s floor. "+
				"Traffic from low intent locations, devices or audiences dilutes results.",
				pct(m.ConversionRate), m.Clicks, pct(a.band.Poor)),
			Impact: "Higher conversion rate and lower cost per conversion",
			Actions: []string{
				"Exclude locations and devices with spend but no conversions",
				"Restrict the schedule to converting hours",
			},
			Prerequisites: []string{"Conversion tracking enabled"},
		}))
	}

	return recs, nil
}
