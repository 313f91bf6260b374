package brain

import (
	"sync"

	"github.com/wonny/adpilot/internal/contracts"
)

// Stats accumulates process wide optimization statistics.
// Safe for concurrent use.
type Stats struct {
	mu sync.Mutex

	total      int64
	successful int64
	failed     int64
	scoreSum   float64
	applied    int64

	assessments int64
	qualitySum  float64
}

// StatsSnapshot is a point in time copy of Stats
type StatsSnapshot struct {
	TotalOptimizations      int64   `json:"total_optimizations"`
	SuccessfulOptimizations int64   `json:"successful_optimizations"`
	FailedOptimizations     int64   `json:"failed_optimizations"`
	AverageScore            float64 `json:"average_optimization_score"` // successful runs only
	AppliedOptimizations    int64   `json:"applied_optimizations"`
	QualityAssessments      int64   `json:"quality_assessments"`
	AverageQualityScore     float64 `json:"average_quality_score"`
}

// NewStats creates an empty accumulator
func NewStats() *Stats {
	return &Stats{}
}

// RecordOptimization adds one finished run
func (s *Stats) RecordOptimization(r *contracts.OptimizationResult) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if !r.Success {
		s.failed++
		return
	}
	s.successful++
	s.scoreSum += r.OptimizationScore
	s.applied += int64(len(r.AppliedOptimizations))
}

// RecordAssessment adds one quality assessment
func (s *Stats) RecordAssessment(a *contracts.QualityAssessment) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assessments++
	s.qualitySum += a.OverallScore
}

// Snapshot returns a consistent copy
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		TotalOptimizations:      s.total,
		SuccessfulOptimizations: s.successful,
		FailedOptimizations:     s.failed,
		AverageScore:            contracts.SafeDiv(s.scoreSum, float64(s.successful)),
		AppliedOptimizations:    s.applied,
		QualityAssessments:      s.assessments,
		AverageQualityScore:     contracts.SafeDiv(s.qualitySum, float64(s.assessments)),
	}
}
