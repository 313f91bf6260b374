package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/pkg/logger"
)

// Engine is the part of brain.Orchestrator the sweep drives
type Engine interface {
	OptimizeCampaign(ctx context.Context, campaignID string, goals []string, autoApply *bool) *contracts.OptimizationResult
	AssessCampaign(ctx context.Context, campaignID string) (*contracts.QualityAssessment, error)
}

var _ Engine = (*brain.Orchestrator)(nil)

// ResultSaver persists sweep output (snapshot.ResultRepository)
type ResultSaver interface {
	SaveOptimization(ctx context.Context, result *contracts.OptimizationResult) error
	SaveAssessment(ctx context.Context, qa *contracts.QualityAssessment) error
}

// SweepSummary is the outcome of one sweep
type SweepSummary struct {
	StartedAt    time.Time `json:"started_at"`
	Campaigns    int       `json:"campaigns"`
	Optimized    int       `json:"optimized"`
	Failed       int       `json:"failed"`
	Assessed     int       `json:"assessed"`
	Saved        int       `json:"saved"`
	AverageScore float64   `json:"average_score"`
}

// CampaignSweepJob optimizes and assesses a fixed list of campaigns.
// Snapshot fetches are paced by a token bucket.
type CampaignSweepJob struct {
	engine    Engine
	saver     ResultSaver // nil = 저장 안 함
	campaigns []string
	goals     []string
	schedule  string
	limiter   *rate.Limiter
	logger    *logger.Logger

	mu   sync.Mutex
	last *SweepSummary
}

// SweepConfig configures a CampaignSweepJob
type SweepConfig struct {
	Campaigns []string
	Goals     []string
	Schedule  string // cron with seconds
	RPS       int    // snapshot fetches per second
}

// NewCampaignSweepJob creates a new sweep job; saver may be nil
func NewCampaignSweepJob(engine Engine, saver ResultSaver, cfg SweepConfig, log *logger.Logger) *CampaignSweepJob {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "0 0 6 * * *"
	}
	return &CampaignSweepJob{
		engine:    engine,
		saver:     saver,
		campaigns: append([]string{}, cfg.Campaigns...),
		goals:     append([]string{}, cfg.Goals...),
		schedule:  schedule,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    log.WithField("job", "campaign_sweep"),
	}
}

// Name returns the job name
func (j *CampaignSweepJob) Name() string {
	return "campaign_sweep"
}

// Schedule returns the cron schedule (default every day at 6 AM)
func (j *CampaignSweepJob) Schedule() string {
	return j.schedule
}

// Run sweeps every configured campaign.
// It fails only when every campaign failed, so the scheduler retries outages, not bad data.
func (j *CampaignSweepJob) Run(ctx context.Context) error {
	summary := &SweepSummary{StartedAt: time.Now(), Campaigns: len(j.campaigns)}
	if len(j.campaigns) == 0 {
		j.logger.Debug("No campaigns configured, skipping sweep")
		j.setLast(summary)
		return nil
	}

	var scoreSum float64
	for _, id := range j.campaigns {
		if err := j.limiter.Wait(ctx); err != nil {
			j.setLast(summary)
			return fmt.Errorf("campaign sweep interrupted: %w", err)
		}

		log := j.logger.WithField("campaign_id", id)

		result := j.engine.OptimizeCampaign(ctx, id, j.goals, nil)
		if result.Success {
			summary.Optimized++
			scoreSum += result.OptimizationScore
		} else {
			summary.Failed++
			log.WithField("errors", result.Errors).Warn("Campaign optimization failed")
		}
		if j.save(log, func(s ResultSaver) error { return s.SaveOptimization(ctx, result) }) {
			summary.Saved++
		}

		qa, err := j.engine.AssessCampaign(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Campaign quality assessment failed")
			continue
		}
		summary.Assessed++
		if j.save(log, func(s ResultSaver) error { return s.SaveAssessment(ctx, qa) }) {
			summary.Saved++
		}
	}

	if summary.Optimized > 0 {
		summary.AverageScore = scoreSum / float64(summary.Optimized)
	}
	j.setLast(summary)

	j.logger.WithFields(map[string]interface{}{
		"campaigns": summary.Campaigns,
		"optimized": summary.Optimized,
		"failed":    summary.Failed,
		"assessed":  summary.Assessed,
		"avg_score": summary.AverageScore,
	}).Info("Campaign sweep completed")

	if summary.Optimized == 0 {
		return fmt.Errorf("campaign sweep: all %d campaigns failed", summary.Campaigns)
	}
	return nil
}

// LastSummary returns the summary of the latest sweep, nil before the first run
func (j *CampaignSweepJob) LastSummary() *SweepSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return nil
	}
	cp := *j.last
	return &cp
}

func (j *CampaignSweepJob) setLast(s *SweepSummary) {
	j.mu.Lock()
	j.last = s
	j.mu.Unlock()
}

func (j *CampaignSweepJob) save(log *logger.Logger, fn func(ResultSaver) error) bool {
	if j.saver == nil {
		return false
	}
	if err := fn(j.saver); err != nil {
		log.WithError(err).Warn("Failed to save sweep output")
		return false
	}
	return true
}
