package contracts

// Metric names used in Recommendation.EstimatedImprovement and ForecastRecord
const (
	MetricImpressions       = "impressions"
	MetricClicks            = "clicks"
	MetricConversions       = "conversions"
	MetricCost              = "cost"
	MetricCTR               = "ctr"
	MetricConversionRate    = "conversion_rate"
	MetricCPC               = "cpc"
	MetricCostPerConversion = "cost_per_conversion"
	MetricQualityScore      = "quality_score"
	MetricImpressionShare   = "impression_share"
)

// PerformanceInput is the raw, partial performance block of a campaign, keyword or ad.
// Any field may be absent.
type PerformanceInput struct {
	Impressions       *int64   `json:"impressions,omitempty"`
	Clicks            *int64   `json:"clicks,omitempty"`
	Conversions       *float64 `json:"conversions,omitempty"`
	Cost              *float64 `json:"cost,omitempty"`
	CTR               *float64 `json:"ctr,omitempty"`
	ConversionRate    *float64 `json:"conversion_rate,omitempty"`
	CPC               *float64 `json:"cpc,omitempty"`
	CostPerConversion *float64 `json:"cost_per_conversion,omitempty"`
	QualityScore      *float64 `json:"quality_score,omitempty"`
	ImpressionShare   *float64 `json:"impression_share,omitempty"`
	AvgDailySpend     *float64 `json:"avg_daily_spend,omitempty"`
}

// CanonicalMetrics is the normalized metrics record every advisor consumes
// ⭐ SSOT: S0 → S1 지표 전달
type CanonicalMetrics struct {
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	Conversions       float64 `json:"conversions"`
	Cost              float64 `json:"cost"`
	CTR               float64 `json:"ctr"`             // 0~1
	ConversionRate    float64 `json:"conversion_rate"` // 0~1
	CPC               float64 `json:"cpc"`
	CostPerConversion float64 `json:"cost_per_conversion"`
	QualityScore      float64 `json:"quality_score"`    // 0~10, 0 = unknown
	ImpressionShare   float64 `json:"impression_share"` // 0~1, 0 = unknown
}

// Value returns the metric by name
func (m CanonicalMetrics) Value(name string) (float64, bool) {
	switch name {
	case MetricImpressions:
		return float64(m.Impressions), true
	case MetricClicks:
		return float64(m.Clicks), true
	case MetricConversions:
		return m.Conversions, true
	case MetricCost:
		return m.Cost, true
	case MetricCTR:
		return m.CTR, true
	case MetricConversionRate:
		return m.ConversionRate, true
	case MetricCPC:
		return m.CPC, true
	case MetricCostPerConversion:
		return m.CostPerConversion, true
	case MetricQualityScore:
		return m.QualityScore, true
	case MetricImpressionShare:
		return m.ImpressionShare, true
	default:
		return 0, false
	}
}

// IsRatioMetric reports whether the metric lives in [0,1]
func IsRatioMetric(name string) bool {
	switch name {
	case MetricCTR, MetricConversionRate, MetricImpressionShare:
		return true
	}
	return false
}

// MetricBounds returns the clamp bounds of a metric (hi < 0 means unbounded)
func MetricBounds(name string) (lo, hi float64) {
	switch {
	case IsRatioMetric(name):
		return 0, 1
	case name == MetricQualityScore:
		return 0, 10
	default:
		return 0, -1
	}
}
