package s0_metrics

import (
	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/pkg/logger"
)

// Analyzer implements S0: raw performance → CanonicalMetrics
// ⭐ SSOT: 파생 지표(CTR/CVR/CPC/CPA) 계산은 여기서만
type Analyzer struct {
	logger *logger.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{
		logger: log.WithField("component", "s0_metrics.analyzer"),
	}
}

// Normalize converts a partial performance block into CanonicalMetrics.
// Absent counters are 0, derived ratios are recomputed from the counters
// and are 0 whenever their denominator is 0.
func (a *Analyzer) Normalize(raw *contracts.PerformanceInput) contracts.CanonicalMetrics {
	return Normalize(raw)
}

// Normalize is the stateless form of Analyzer.Normalize
func Normalize(raw *contracts.PerformanceInput) contracts.CanonicalMetrics {
	if raw == nil {
		return contracts.CanonicalMetrics{}
	}

	m := contracts.CanonicalMetrics{
		Impressions: nonNegInt(raw.Impressions),
		Clicks:      nonNegInt(raw.Clicks),
		Conversions: nonNegFloat(raw.Conversions),
		Cost:        nonNegFloat(raw.Cost),
		// 외부 제공 값 (raw counter 로 재계산 불가)
		QualityScore:    contracts.ClampMetric(contracts.MetricQualityScore, floatOr(raw.QualityScore)),
		ImpressionShare: contracts.ClampMetric(contracts.MetricImpressionShare, floatOr(raw.ImpressionShare)),
	}
	derive(&m)
	return m
}

// derive recomputes the ratio fields from the counters
func derive(m *contracts.CanonicalMetrics) {
	m.CTR = contracts.ClampRatio(contracts.SafeDiv(float64(m.Clicks), float64(m.Impressions)))
	m.ConversionRate = contracts.ClampRatio(contracts.SafeDiv(m.Conversions, float64(m.Clicks)))
	m.CPC = contracts.SafeDiv(m.Cost, float64(m.Clicks))
	m.CostPerConversion = contracts.SafeDiv(m.Cost, m.Conversions)
}

// Analyze builds the advisor input of one campaign.
// The campaign is only read; keyword and ad slices keep input order.
func (a *Analyzer) Analyze(c *contracts.CampaignInput, goals contracts.GoalSet) *contracts.AnalysisInput {
	in := &contracts.AnalysisInput{
		Campaign: c,
		Goals:    goals,
		Keywords: make([]contracts.KeywordAnalysis, len(c.Keywords)),
		Ads:      make([]contracts.AdAnalysis, len(c.Ads)),
	}

	for i, kw := range c.Keywords {
		in.Keywords[i] = contracts.KeywordAnalysis{Keyword: kw, Metrics: Normalize(kw.Metrics)}
	}
	for i, ad := range c.Ads {
		in.Ads[i] = contracts.AdAnalysis{Ad: ad, Metrics: Normalize(ad.Metrics)}
	}

	if c.Performance != nil {
		in.Metrics = Normalize(c.Performance)
		in.AvgDailySpend = nonNegFloat(c.Performance.AvgDailySpend)
	} else {
		// campaign 성과가 없으면 keyword 성과를 합산
		in.Metrics = Rollup(in.Keywords)
	}

	if c.Budget != nil && *c.Budget > 0 {
		in.DailyBudget = *c.Budget
	}

	a.logger.WithFields(map[string]interface{}{
		"campaign_id": c.CampaignID,
		"keywords":    len(in.Keywords),
		"ads":         len(in.Ads),
		"impressions": in.Metrics.Impressions,
		"ctr":         in.Metrics.CTR,
	}).Debug("Campaign metrics normalized")

	return in
}

// Rollup sums keyword counters into campaign level metrics.
// Quality score is the impression weighted mean of keywords with a known score;
// impression share stays unknown.
func Rollup(keywords []contracts.KeywordAnalysis) contracts.CanonicalMetrics {
	var m contracts.CanonicalMetrics
	var qsWeighted, qsWeight float64

	for _, k := range keywords {
		m.Impressions += k.Metrics.Impressions
		m.Clicks += k.Metrics.Clicks
		m.Conversions += k.Metrics.Conversions
		m.Cost += k.Metrics.Cost

		if k.Metrics.QualityScore > 0 {
			w := float64(k.Metrics.Impressions)
			if w == 0 {
				w = 1
			}
			qsWeighted += k.Metrics.QualityScore * w
			qsWeight += w
		}
	}

	m.QualityScore = contracts.ClampMetric(contracts.MetricQualityScore, contracts.SafeDiv(qsWeighted, qsWeight))
	derive(&m)
	return m
}

func nonNegInt(v *int64) int64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func nonNegFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return contracts.ClampMetric(contracts.MetricCost, *v)
}

func floatOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
