package s1_advisors

import (
	"context"
	"fmt"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

var (
	keywordLowQualityScore = ruleSpec{
		Rule:        "keyword_low_quality_score",
		Category:    contracts.CategoryQualityImprovement,
		Priority:    contracts.PriorityCritical,
		Effort:      contracts.EffortMedium,
		Risk:        contracts.RiskLow,
		Confidence:  0.9,
		Improvement: map[string]float64{contracts.MetricQualityScore: 0.3, contracts.MetricCPC: -0.15},
		Timeline:    "2-4 weeks",
	}
	campaignLowQualityScore = ruleSpec{
		Rule:        "campaign_low_quality_score",
		Category:    contracts.CategoryQualityImprovement,
		Priority:    contracts.PriorityCritical,
		Effort:      contracts.EffortHigh,
		Risk:        contracts.RiskLow,
		Confidence:  0.85,
		Improvement: map[string]float64{contracts.MetricQualityScore: 0.2, contracts.MetricCPC: -0.1},
		Timeline:    "1-2 months",
	}
)

// QualityScoreAdvisor flags keywords and campaigns with a poor quality score.
// A quality score of 0 means unknown and never fires.
type QualityScoreAdvisor struct {
	band    engineconfig.Band
	workers int
	logger  *logger.Logger
}

// NewQualityScoreAdvisor creates a new quality score advisor
func NewQualityScoreAdvisor(cfg *engineconfig.Config, log *logger.Logger) *QualityScoreAdvisor {
	return &QualityScoreAdvisor{
		band:    cfg.Thresholds.QualityScore,
		workers: cfg.Orchestrator.AdvisorWorkers,
		logger:  log.WithField("advisor", "quality_score_advisor"),
	}
}

// Name returns the advisor name
func (a *QualityScoreAdvisor) Name() string { return "quality_score_advisor" }

// Analyze evaluates keyword scores first, then the campaign score
func (a *QualityScoreAdvisor) Analyze(ctx context.Context, in *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	recs, err := fanOut(ctx, a.workers, in.Keywords, func(_ int, k contracts.KeywordAnalysis) []contracts.Recommendation {
		qs := k.Metrics.QualityScore
		if qs <= 0 || !a.band.IsPoor(qs) {
			return nil
		}
		return []contracts.Recommendation{keywordLowQualityScore.build(finding{
			EntityKey: k.Keyword.Key(),
			Title:     fmt.Sprintf("Fix low quality score of keyword '%s'", k.Keyword.Text),
			Description: fmt.Sprintf("Keyword '%s' has a quality score of %.1f/10, below %.1f. "+
				"Work to improve quality score lowers cost per click and lifts ad rank.",
				k.Keyword.Text, qs, a.band.Poor),
			Impact: "Lower CPC and better ad positions",
			Actions: []string{
				"Move the keyword into a tightly themed ad group",
				"Write ad copy that repeats the keyword",
				"Improve landing page relevance and load time",
			},
		})}
	})
	if err != nil {
		return nil, err
	}

	qs := in.Metrics.QualityScore
	if qs > 0 && a.band.IsPoor(qs) {
		recs = append(recs, campaignLowQualityScore.build(finding{
			EntityKey: contracts.CampaignKey(in.Campaign.CampaignID),
			Title:     "Restructure campaign to raise quality score",
			Description: fmt.Sprintf("The campaign quality score averages %.1f/10, below %.1f. "+
				"Restructuring ad groups by theme is the broadest way to improve quality score.",
				qs, a.band.Poor),
			Impact: "Lower CPC across the campaign",
			Actions: []string{
				"Split ad groups so each holds closely related keywords",
				"Pause keywords with a score of 1-2 and no conversions",
				"Audit landing page experience",
			},
		}))
	}

	return recs, nil
}
