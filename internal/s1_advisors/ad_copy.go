package s1_advisors

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

var (
	adLowCTR = ruleSpec{
		Rule:        "ad_low_ctr",
		Category:    contracts.CategoryAdOptimization,
		Priority:    contracts.PriorityHigh,
		Effort:      contracts.EffortMedium,
		Risk:        contracts.RiskLow,
		Confidence:  0.75,
		Improvement: map[string]float64{contracts.MetricCTR: 0.2, contracts.MetricClicks: 0.15},
		Timeline:    "2-3 weeks",
	}
	adOverlongAssets = ruleSpec{
		Rule:        "ad_overlong_assets",
		Category:    contracts.CategoryAdOptimization,
		Priority:    contracts.PriorityHigh,
		Effort:      contracts.EffortLow,
		Risk:        contracts.RiskLow,
		Confidence:  0.95,
		Improvement: map[string]float64{contracts.MetricImpressions: 0.05},
		Timeline:    "1 day",
	}
	adMissingFinalURL = ruleSpec{
		Rule:        "ad_missing_final_url",
		Category:    contracts.CategoryAdOptimization,
		Priority:    contracts.PriorityHigh,
		Effort:      contracts.EffortLow,
		Risk:        contracts.RiskLow,
		Confidence:  0.9,
		Improvement: map[string]float64{contracts.MetricConversions: 0.1},
		Timeline:    "1 day",
	}
	adFewAssets = ruleSpec{
		Rule:        "ad_few_assets",
		Category:    contracts.CategoryAdOptimization,
		Priority:    contracts.PriorityMedium,
		Effort:      contracts.EffortLow,
		Risk:        contracts.RiskLow,
		Confidence:  0.7,
		Improvement: map[string]float64{contracts.MetricCTR: 0.1},
		Timeline:    "1 week",
	}
	adLowConversionRate = ruleSpec{
		Rule:        "ad_low_conversion_rate",
		Category:    contracts.CategoryConversionOptimization,
		Priority:    contracts.PriorityMedium,
		Effort:      contracts.EffortMedium,
		Risk:        contracts.RiskMedium,
		Confidence:  0.65,
		Improvement: map[string]float64{contracts.MetricConversionRate: 0.15, contracts.MetricConversions: 0.15},
		Timeline:    "2-4 weeks",
	}
)

// AdCopyOptimizer checks ad copy limits, landing pages and ad performance
type AdCopyOptimizer struct {
	thresholds engineconfig.Thresholds
	limits     engineconfig.AdLimits
	workers    int
	logger     *logger.Logger
}

// NewAdCopyOptimizer creates a new ad copy optimizer
func NewAdCopyOptimizer(cfg *engineconfig.Config, log *logger.Logger) *AdCopyOptimizer {
	return &AdCopyOptimizer{
		thresholds: cfg.Thresholds,
		limits:     cfg.Ads,
		workers:    cfg.Orchestrator.AdvisorWorkers,
		logger:     log.WithField("advisor", "ad_copy_optimizer"),
	}
}

// Name returns the advisor name
func (o *AdCopyOptimizer) Name() string { return "ad_copy_optimizer" }

// Analyze evaluates every ad independently
func (o *AdCopyOptimizer) Analyze(ctx context.Context, in *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	return fanOut(ctx, o.workers, in.Ads, func(_ int, a contracts.AdAnalysis) []contracts.Recommendation {
		return o.analyzeAd(a)
	})
}

func (o *AdCopyOptimizer) analyzeAd(a contracts.AdAnalysis) []contracts.Recommendation {
	var recs []contracts.Recommendation
	m := a.Metrics
	key := a.Ad.Key()

	// 1. CTR
	if m.Impressions > 0 && o.thresholds.CTR.IsPoor(m.CTR) {
		recs = append(recs, adLowCTR.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Rewrite ad %s to lift click-through rate", a.Ad.ID),
			Description: fmt.Sprintf("Ad %s has a CTR of %s over %d impressions, below the %s floor.",
				a.Ad.ID, pct(m.CTR), m.Impressions, pct(o.thresholds.CTR.Poor)),
			Impact: "More clicks from the same impressions",
			Actions: []string{
				"Lead with the main benefit in the first headline",
				"Add a clear call to action",
				"Test a variant against the current copy",
			},
		}))
	}

	// 2. Asset length limits
	if over := o.overlongAssets(a.Ad); len(over) > 0 {
		recs = append(recs, adOverlongAssets.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Shorten %d asset(s) of ad %s", len(over), a.Ad.ID),
			Description: fmt.Sprintf("Ad %s has assets over the %d character headline or %d character description limit and may be disapproved or truncated.",
				a.Ad.ID, o.limits.HeadlineMaxChars, o.limits.DescriptionMaxChars),
			Impact:  "Ad stays eligible to serve",
			Actions: over,
		}))
	}

	// 3. Landing page
	if strings.TrimSpace(a.Ad.FinalURL) == "" {
		recs = append(recs, adMissingFinalURL.build(finding{
			EntityKey:   key,
			Title:       fmt.Sprintf("Add a final URL to ad %s", a.Ad.ID),
			Description: fmt.Sprintf("Ad %s has no final URL, so clicks have no landing page to convert on.", a.Ad.ID),
			Impact:      "Clicks can convert",
			Actions:     []string{"Set the final URL to the most relevant landing page"},
		}))
	}

	// 4. Asset count
	if len(a.Ad.Headlines) < o.limits.MinHeadlines || len(a.Ad.Descriptions) < o.limits.MinDescriptions {
		recs = append(recs, adFewAssets.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Add headlines and descriptions to ad %s", a.Ad.ID),
			Description: fmt.Sprintf("Ad %s has %d headline(s) and %d description(s); at least %d and %d give the ad system room to test combinations.",
				a.Ad.ID, len(a.Ad.Headlines), len(a.Ad.Descriptions), o.limits.MinHeadlines, o.limits.MinDescriptions),
			Impact:  "Better combinations served per query",
			Actions: []string{"Write additional headlines covering benefits, features and offers"},
		}))
	}

	// 5. Conversion rate
	if m.Clicks > 0 && o.thresholds.ConversionRate.IsPoor(m.ConversionRate) {
		recs = append(recs, adLowConversionRate.build(finding{
			EntityKey: key,
			Title:     fmt.Sprintf("Align ad %s with its landing page", a.Ad.ID),
			Description: fmt.Sprintf("Ad %s converts %s of %d clicks, below the %s floor. The promise in the copy may not match the landing page.",
				a.Ad.ID, pct(m.ConversionRate), m.Clicks, pct(o.thresholds.ConversionRate.Poor)),
			Impact:        "More conversions per click",
			Actions:       []string{"Match the offer in the headline to the landing page", "Remove claims the page does not support"},
			Prerequisites: []string{"Conversion tracking enabled"},
		}))
	}

	return recs
}

// overlongAssets lists one action per asset over its character limit
func (o *AdCopyOptimizer) overlongAssets(ad contracts.Ad) []string {
	var out []string
	for i, h := range ad.Headlines {
		if n := utf8.RuneCountInString(h); n > o.limits.HeadlineMaxChars {
			out = append(out, fmt.Sprintf("Shorten headline %d to %d characters (now %d)", i+1, o.limits.HeadlineMaxChars, n))
		}
	}
	for i, d := range ad.Descriptions {
		if n := utf8.RuneCountInString(d); n > o.limits.DescriptionMaxChars {
			out = append(out, fmt.Sprintf("Shorten description %d to %d characters (now %d)", i+1, o.limits.DescriptionMaxChars, n))
		}
	}
	return out
}
