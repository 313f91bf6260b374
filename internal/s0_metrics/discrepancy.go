package s0_metrics

import (
	"math"

	"github.com/wonny/adpilot/internal/contracts"
)

// Discrepancy is a supplied derived metric that disagrees with its counters
type Discrepancy struct {
	Metric   string  `json:"metric"`
	Supplied float64 `json:"supplied"`
	Computed float64 `json:"computed"`
}

// Discrepancies compares supplied derived fields against the values recomputed
// from raw counters. Fields without counters to check against are skipped.
func Discrepancies(raw *contracts.PerformanceInput, tolerance float64) []Discrepancy {
	if raw == nil {
		return nil
	}
	m := Normalize(raw)

	type check struct {
		metric    string
		supplied  *float64
		computed  float64
		countable bool
	}
	checks := []check{
		{contracts.MetricCTR, raw.CTR, m.CTR, raw.Impressions != nil && raw.Clicks != nil},
		{contracts.MetricConversionRate, raw.ConversionRate, m.ConversionRate, raw.Clicks != nil && raw.Conversions != nil},
		{contracts.MetricCPC, raw.CPC, m.CPC, raw.Clicks != nil && raw.Cost != nil},
		{contracts.MetricCostPerConversion, raw.CostPerConversion, m.CostPerConversion, raw.Conversions != nil && raw.Cost != nil},
	}

	var out []Discrepancy
	for _, c := range checks {
		if c.supplied == nil || !c.countable {
			continue
		}
		if !withinTolerance(*c.supplied, c.computed, tolerance) {
			out = append(out, Discrepancy{Metric: c.metric, Supplied: *c.supplied, Computed: c.computed})
		}
	}
	return out
}

// ImpossibleCounters lists counter relations that cannot hold
// (clicks > impressions, conversions > clicks, negative counters)
func ImpossibleCounters(raw *contracts.PerformanceInput) []string {
	if raw == nil {
		return nil
	}

	var out []string
	if raw.Impressions != nil && raw.Clicks != nil && *raw.Clicks > *raw.Impressions {
		out = append(out, "clicks exceed impressions")
	}
	if raw.Clicks != nil && raw.Conversions != nil && *raw.Conversions > float64(*raw.Clicks) {
		out = append(out, "conversions exceed clicks")
	}
	if (raw.Impressions != nil && *raw.Impressions < 0) ||
		(raw.Clicks != nil && *raw.Clicks < 0) ||
		(raw.Conversions != nil && *raw.Conversions < 0) ||
		(raw.Cost != nil && *raw.Cost < 0) {
		out = append(out, "negative counter")
	}
	return out
}

// withinTolerance compares relatively, with an absolute floor for values near 0
func withinTolerance(a, b, tolerance float64) bool {
	diff := math.Abs(a - b)
	if diff <= tolerance {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return diff <= tolerance*scale
}
