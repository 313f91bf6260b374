package jobs

import (
	"context"

	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/pkg/logger"
)

// StatsReportJob logs the engine statistics accumulator
type StatsReportJob struct {
	stats  *brain.Stats
	logger *logger.Logger
}

// NewStatsReportJob creates a new stats report job
func NewStatsReportJob(stats *brain.Stats, log *logger.Logger) *StatsReportJob {
	return &StatsReportJob{
		stats:  stats,
		logger: log,
	}
}

// Name returns the job name
func (j *StatsReportJob) Name() string {
	return "stats_report"
}

// Schedule returns the cron schedule (every hour)
func (j *StatsReportJob) Schedule() string {
	return "0 0 * * * *"
}

// Run logs the current statistics
func (j *StatsReportJob) Run(ctx context.Context) error {
	snap := j.stats.Snapshot()
	if snap.TotalOptimizations == 0 && snap.QualityAssessments == 0 {
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"total":       snap.TotalOptimizations,
		"successful":  snap.SuccessfulOptimizations,
		"failed":      snap.FailedOptimizations,
		"avg_score":   snap.AverageScore,
		"applied":     snap.AppliedOptimizations,
		"assessments": snap.QualityAssessments,
		"avg_quality": snap.AverageQualityScore,
	}).Info("Engine statistics")

	return nil
}
