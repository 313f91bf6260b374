package s1_advisors

import (
	"context"
	"fmt"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

var (
	keywordLowCTR = ruleSpec{
		Rule:        "keyword_low_ctr",
		Category:    contracts.CategoryKeywordOptimization,
		Priority:    contracts.PriorityHigh,
		Effort:      contracts.EffortLow,
		Risk:        contracts.RiskLow,
		Confidence:  0.8,
		Improvement: map[string]float64{contracts.MetricCTR: 0.25, contracts.MetricClicks: 0.2},
		Timeline:    "1-2 weeks",
	}
	keywordLowConversionRate = ruleSpec{
		Rule:        "keyword_low_conversion_rate",
		Category:    contracts.CategoryConversionOptimization,
		Priority:    contracts.PriorityMedium,
		Effort:      contracts.EffortMedium,
		Risk:        contracts.RiskMedium,
		Confidence:  0.7,
		Improvement: map[string]float64{contracts.MetricConversionRate: 0.2, contracts.MetricConversions: 0.2},
		Timeline:    "2-4 weeks",
	}
	keywordLowImpressionShare = ruleSpec{
		Rule:     "keyword_low_impression_share",
		Category: contracts.CategoryBidOptimization,
		Priority: contracts.PriorityMedium,
		Effort:   contracts.EffortLow,
		Risk:     contracts.RiskMedium,
		Improvement: map[string]float64{
			contracts.MetricImpressions:     0.3,
			contracts.MetricImpressionShare: 0.25,
			contracts.MetricCost:            0.2,
		},
		Confidence: 0.7,
		Timeline:   "1 week",
	}
)

// KeywordOptimizer implements the per keyword CTR, conversion and reach rules
type KeywordOptimizer struct {
	thresholds engineconfig.Thresholds
	workers    int
	logger     *logger.Logger
}

// NewKeywordOptimizer creates a new keyword optimizer
func NewKeywordOptimizer(cfg *engineconfig.Config, log *logger.Logger) *KeywordOptimizer {
	return &KeywordOptimizer{
		thresholds: cfg.Thresholds,
		workers:    cfg.Orchestrator.AdvisorWorkers,
		logger:     log.WithField("advisor", "keyword_optimizer"),
	}
}

// Name returns the advisor name
func (o *KeywordOptimizer) Name() string { return "keyword_optimizer" }

// Analyze evaluates every keyword independently
func (o *KeywordOptimizer) Analyze(ctx context.Context, in *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	return fanOut(ctx, o.workers, in.Keywords, func(_ int, k contracts.KeywordAnalysis) []contracts.Recommendation {
		return o.analyzeKeyword(k)
	})
}

func (o *KeywordOptimizer) analyzeKeyword(k contracts.KeywordAnalysis) []contracts.Recommendation {
	var recs []contracts.Recommendation
	m := k.Metrics
	key := k.Keyword.Key()
	label := fmt.Sprintf("'%s' (%s)", k.Keyword.Text, k.Keyword.MatchType)

	// 1. CTR
	if m.Impressions > 0 && o.thresholds.CTR.IsPoor(m.CTR) {
		recs = append(recs, keywordLowCTR.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Improve click-through rate of keyword '%s'", k.Keyword.Text),
			Description: fmt.Sprintf("Keyword %s has a CTR of %s over %d impressions, below the %s floor. "+
				"The query traffic it matches does not find the ads relevant.",
				label, pct(m.CTR), m.Impressions, pct(o.thresholds.CTR.Poor)),
			Impact: "More clicks from the same impressions",
			Actions: []string{
				"Review the search terms report and add negative keywords",
				"Tighten the match type if broad traffic dominates",
				"Mirror the keyword in at least one headline",
			},
		}))
	}

	// 2. Conversion rate
	if m.Clicks > 0 && o.thresholds.ConversionRate.IsPoor(m.ConversionRate) {
		recs = append(recs, keywordLowConversionRate.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Raise conversion rate of keyword '%s'", k.Keyword.Text),
			Description: fmt.Sprintf("Keyword %s converts %s of %d clicks, below the %s floor. "+
				"Better landing page alignment helps maximize conversions from paid clicks.",
				label, pct(m.ConversionRate), m.Clicks, pct(o.thresholds.ConversionRate.Poor)),
			Impact: "More conversions without additional clicks",
			Actions: []string{
				"Send the keyword to the most specific landing page",
				"Check conversion tracking on the landing page",
				"Lower the bid until the conversion rate recovers",
			},
			Prerequisites: []string{"Conversion tracking enabled"},
		}))
	}

	// 3. Impression share (0 = unknown)
	if m.ImpressionShare > 0 && o.thresholds.ImpressionShare.IsPoor(m.ImpressionShare) {
		recs = append(recs, keywordLowImpressionShare.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Increase bid on keyword '%s'", k.Keyword.Text),
			Description: fmt.Sprintf("Keyword %s shows in only %s of eligible auctions. "+
				"A higher bid moves it toward the target impression share.",
				label, pct(m.ImpressionShare)),
			Impact: "Wider reach on a keyword that already qualifies",
			Actions: []string{
				fmt.Sprintf("Raise the bid from %.2f in 10-20%% steps", k.Keyword.Bid),
				"Watch cost per conversion after each step",
			},
		}))
	}

	if len(recs) > 0 {
		o.logger.WithFields(map[string]interface{}{
			"keyword": k.Keyword.Text,
			"fired":   len(recs),
		}).Debug("Keyword rules fired")
	}
	return recs
}
