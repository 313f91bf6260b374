package s1_advisors

import (
	"context"
	"fmt"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

var (
	budgetIncrease = ruleSpec{
		Rule:     "budget_limited",
		Category: contracts.CategoryBudget,
		Priority: contracts.PriorityHigh,
		Effort:   contracts.EffortLow,
		Risk:     contracts.RiskMedium,
		Improvement: map[string]float64{
			contracts.MetricImpressions: 0.2,
			contracts.MetricClicks:      0.15,
			contracts.MetricConversions: 0.15,
			contracts.MetricCost:        0.2,
		},
		Confidence: 0.85,
		Timeline:   "Immediate",
	}
	budgetReach = ruleSpec{
		Rule:        "budget_low_impression_share",
		Category:    contracts.CategoryBudgetOptimization,
		Priority:    contracts.PriorityMedium,
		Effort:      contracts.EffortLow,
		Risk:        contracts.RiskMedium,
		Confidence:  0.65,
		Improvement: map[string]float64{contracts.MetricImpressionShare: 0.2, contracts.MetricImpressions: 0.2},
		Timeline:    "1-2 weeks",
	}
)

// BudgetAdvisor compares spend against the daily budget
type BudgetAdvisor struct {
	spendRatio float64
	isBand     engineconfig.Band
	logger     *logger.Logger
}

// NewBudgetAdvisor creates a new budget advisor
func NewBudgetAdvisor(cfg *engineconfig.Config, log *logger.Logger) *BudgetAdvisor {
	return &BudgetAdvisor{
		spendRatio: cfg.Budget.SpendRatio,
		isBand:     cfg.Thresholds.ImpressionShare,
		logger:     log.WithField("advisor", "budget_advisor"),
	}
}

// Name returns the advisor name
func (a *BudgetAdvisor) Name() string { return "budget_advisor" }

// Analyze emits at most one recommendation: an increase when spend runs at
// the budget cap, otherwise a reallocation when impression share is poor
func (a *BudgetAdvisor) Analyze(_ context.Context, in *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	key := contracts.CampaignKey(in.Campaign.CampaignID)

	if in.DailyBudget > 0 && in.AvgDailySpend > a.spendRatio*in.DailyBudget {
		return []contracts.Recommendation{budgetIncrease.build(finding{
			EntityKey: key,
			Title:     "Increase daily budget",
			Description: fmt.Sprintf("Average daily spend %.2f uses %s of the %.2f daily budget. "+
				"The campaign is limited by budget and misses auctions late in the day.",
				in.AvgDailySpend, pct(in.AvgDailySpend/in.DailyBudget), in.DailyBudget),
			Impact: "More impressions and conversions from unserved demand",
			Actions: []string{
				"Raise the daily budget by 20-30%",
				"Shift budget from campaigns that underspend",
			},
		})}, nil
	}

	is := in.Metrics.ImpressionShare
	if is > 0 && a.isBand.IsPoor(is) {
		return []contracts.Recommendation{budgetReach.build(finding{
			EntityKey: key,
			Title:     "Reallocate budget toward high share keywords",
			Description: fmt.Sprintf("The campaign shows in %s of eligible auctions. "+
				"Moving budget to the best performing keywords raises reach toward the target impression share.",
				pct(is)),
			Impact:  "Higher impression share at the same spend",
			Actions: []string{"Pause low performing keywords", "Move their budget to keywords with the best conversion rate"},
		})}, nil
	}

	return nil, nil
}
