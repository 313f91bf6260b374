package quality

import (
	"time"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/internal/s0_metrics"
	"github.com/wonny/adpilot/pkg/logger"
)

// RedesignNote is added when too many dimensions score below the redesign threshold
const RedesignNote = "Consider comprehensive redesign of the campaign structure"

// Assessor scores a campaign on 8 weighted quality dimensions
// ⭐ SSOT: 품질 rubric 은 여기서만
type Assessor struct {
	cfg    *engineconfig.Config
	logger *logger.Logger
	now    func() time.Time
}

// NewAssessor creates a new quality assessor
func NewAssessor(cfg *engineconfig.Config, log *logger.Logger) *Assessor {
	return &Assessor{
		cfg:    cfg,
		logger: log.WithField("component", "quality.assessor"),
		now:    time.Now,
	}
}

// dimensionResult is the raw output of one dimension scorer
type dimensionResult struct {
	score   float64
	details map[string]interface{}
	recs    []string
}

// subject is the campaign as seen by the dimension scorers
type subject struct {
	campaign *contracts.CampaignInput
	metrics  contracts.CanonicalMetrics
	spend    float64
}

type scorer func(a *Assessor, s *subject) dimensionResult

var scorers = map[contracts.Dimension]scorer{
	contracts.DimensionRelevance:     (*Assessor).relevance,
	contracts.DimensionClarity:       (*Assessor).clarity,
	contracts.DimensionCompleteness:  (*Assessor).completeness,
	contracts.DimensionAccuracy:      (*Assessor).accuracy,
	contracts.DimensionConsistency:   (*Assessor).consistency,
	contracts.DimensionEffectiveness: (*Assessor).effectiveness,
	contracts.DimensionCompliance:    (*Assessor).compliance,
	contracts.DimensionPerformance:   (*Assessor).performance,
}

// Assess computes the quality assessment of one campaign.
// The campaign is only read; identical input gives an identical overall score.
func (a *Assessor) Assess(c *contracts.CampaignInput) *contracts.QualityAssessment {
	if c == nil {
		c = &contracts.CampaignInput{}
	}
	s := &subject{campaign: c}
	if c.Performance != nil {
		s.metrics = s0_metrics.Normalize(c.Performance)
		if c.Performance.AvgDailySpend != nil {
			s.spend = *c.Performance.AvgDailySpend
		}
	} else {
		keywords := make([]contracts.KeywordAnalysis, len(c.Keywords))
		for i, k := range c.Keywords {
			keywords[i] = contracts.KeywordAnalysis{Keyword: k, Metrics: s0_metrics.Normalize(k.Metrics)}
		}
		s.metrics = s0_metrics.Rollup(keywords)
	}

	assessment := &contracts.QualityAssessment{
		CampaignID:      c.CampaignID,
		Metrics:         make([]contracts.QualityMetric, 0, len(contracts.AllDimensions)),
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
		AssessedAt:      a.now().UTC(),
	}

	overall := 0.0
	below := 0
	var recs []string

	for _, d := range contracts.AllDimensions {
		r := scorers[d](a, s)
		score := contracts.ClampScore(r.score)
		weight := a.cfg.Quality.Weights.For(d)
		level := contracts.ClassifyLevel(score)

		if r.details == nil {
			r.details = map[string]interface{}{}
		}
		metric := contracts.QualityMetric{
			Dimension:       d,
			Score:           score,
			Level:           level,
			Weight:          weight,
			Details:         r.details,
			Recommendations: append([]string{}, r.recs...),
		}
		assessment.Metrics = append(assessment.Metrics, metric)

		overall += score * weight
		if level.IsStrength() {
			assessment.Strengths = append(assessment.Strengths, string(d))
		}
		if level.IsWeakness() {
			assessment.Weaknesses = append(assessment.Weaknesses, string(d))
		}
		if score < a.cfg.Quality.RedesignThreshold {
			below++
		}
		recs = append(recs, r.recs...)
	}

	assessment.OverallScore = contracts.ClampScore(overall)
	assessment.OverallLevel = contracts.ClassifyLevel(assessment.OverallScore)
	assessment.Recommendations = a.mergeRecommendations(recs, below)

	a.logger.WithFields(map[string]interface{}{
		"campaign_id":   c.CampaignID,
		"overall_score": assessment.OverallScore,
		"overall_level": assessment.OverallLevel,
		"weaknesses":    len(assessment.Weaknesses),
	}).Info("Quality assessment completed")

	return assessment
}

// mergeRecommendations dedupes in dimension order and caps the list.
// The redesign note goes first and counts toward the cap.
func (a *Assessor) mergeRecommendations(recs []string, below int) []string {
	out := make([]string, 0, a.cfg.Quality.MaxRecommendations)
	seen := make(map[string]bool)

	add := func(r string) {
		if r == "" || seen[r] || len(out) >= a.cfg.Quality.MaxRecommendations {
			return
		}
		seen[r] = true
		out = append(out, r)
	}

	if below > a.cfg.Quality.RedesignMinDimensions {
		add(RedesignNote)
	}
	for _, r := range recs {
		add(r)
	}
	return out
}
