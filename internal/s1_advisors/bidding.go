package s1_advisors

import (
	"context"
	"strings"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

var biddingSwitchToSmart = ruleSpec{
	Rule:     "bidding_manual_to_conversions",
	Category: contracts.CategoryBiddingStrategy,
	Priority: contracts.PriorityHigh,
	Effort:   contracts.EffortMedium,
	Risk:     contracts.RiskMedium,
	Improvement: map[string]float64{
		contracts.MetricConversions:       0.15,
		contracts.MetricCostPerConversion: -0.1,
	},
	Confidence: 0.75,
	Timeline:   "2-6 weeks (learning period)",
}

// BiddingStrategyAdvisor checks the bidding strategy against the requested goals
type BiddingStrategyAdvisor struct {
	sentinel string
	logger   *logger.Logger
}

// NewBiddingStrategyAdvisor creates a new bidding strategy advisor
func NewBiddingStrategyAdvisor(cfg *engineconfig.Config, log *logger.Logger) *BiddingStrategyAdvisor {
	return &BiddingStrategyAdvisor{
		sentinel: cfg.Bidding.ManualSentinel,
		logger:   log.WithField("advisor", "bidding_strategy_advisor"),
	}
}

// Name returns the advisor name
func (a *BiddingStrategyAdvisor) Name() string { return "bidding_strategy_advisor" }

// Analyze fires when manual bidding is paired with a conversion goal
func (a *BiddingStrategyAdvisor) Analyze(_ context.Context, in *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	bs := in.Campaign.BiddingStrategy
	if bs == nil || !strings.EqualFold(strings.TrimSpace(bs.Type), a.sentinel) {
		return nil, nil
	}
	if !in.Goals.Has(contracts.GoalMaximizeConversions) {
		return nil, nil
	}

	rec := biddingSwitchToSmart.build(finding{
		EntityKey: contracts.CampaignKey(in.Campaign.CampaignID),
		Title:     "Switch from manual CPC to conversion based bidding",
		Description: "The campaign bids manually while the goal is to maximize conversions. " +
			"Automated conversion bidding sets auction time bids from conversion signals.",
		Impact: "More conversions at a similar or lower cost per conversion",
		Actions: []string{
			"Switch the strategy to Maximize Conversions",
			"Keep the budget stable during the learning period",
			"Compare cost per conversion after 30 days",
		},
		Prerequisites: []string{"Conversion tracking enabled", "At least 15 conversions in the last 30 days"},
	})
	return []contracts.Recommendation{rec}, nil
}
