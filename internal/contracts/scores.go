package contracts

import "math"

// Clamp bounds v to [lo, hi]; NaN collapses to lo
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore bounds a 0~100 score
func ClampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}

// ClampRatio bounds a 0~1 ratio
func ClampRatio(v float64) float64 {
	return Clamp(v, 0, 1)
}

// ClampMetric bounds a metric value according to MetricBounds
func ClampMetric(name string, v float64) float64 {
	lo, hi := MetricBounds(name)
	if hi < 0 {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < lo {
			return lo
		}
		return v
	}
	return Clamp(v, lo, hi)
}

// SafeDiv returns num/den, or 0 when den is not positive
func SafeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
