package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/internal/forecast"
	"github.com/wonny/adpilot/internal/quality"
	"github.com/wonny/adpilot/internal/s0_metrics"
	"github.com/wonny/adpilot/internal/s1_advisors"
	"github.com/wonny/adpilot/internal/selection"
	"github.com/wonny/adpilot/pkg/logger"
)

var (
	// ErrMissingCampaign is reported when no campaign is supplied
	ErrMissingCampaign = errors.New("campaign is required")
	// ErrMissingCampaignID is reported when the campaign has no campaign_id
	ErrMissingCampaignID = errors.New("campaign_id is required")
	// ErrNoSnapshotProvider is reported by OptimizeCampaign without a provider
	ErrNoSnapshotProvider = errors.New("snapshot provider not configured")
)

// Orchestrator coordinates the optimization pipeline
// S0 metrics → S1 advisors → S2 prioritize → S3 forecast → (auto-apply)
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	cfg        *engineconfig.Config
	configHash string

	// Stage components
	analyzer    *s0_metrics.Analyzer
	advisors    []contracts.Advisor
	prioritizer *selection.Prioritizer
	forecaster  *forecast.Forecaster
	assessor    *quality.Assessor

	provider contracts.SnapshotProvider
	stats    *Stats

	logger   *logger.Logger
	now      func() time.Time
	newRunID func() string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithAdvisors replaces the default advisor set (generation order = slice order)
func WithAdvisors(advisors ...contracts.Advisor) Option {
	return func(o *Orchestrator) {
		o.advisors = advisors
	}
}

// WithSnapshotProvider sets the campaign snapshot source used by OptimizeCampaign
func WithSnapshotProvider(p contracts.SnapshotProvider) Option {
	return func(o *Orchestrator) {
		o.provider = p
	}
}

// WithStats shares a statistics accumulator between orchestrators
func WithStats(s *Stats) Option {
	return func(o *Orchestrator) {
		o.stats = s
	}
}

// NewOrchestrator creates a new orchestrator with the default stage components
func NewOrchestrator(cfg *engineconfig.Config, log *logger.Logger, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = engineconfig.Default()
	}
	o := &Orchestrator{
		cfg:         cfg,
		configHash:  engineconfig.MustHash(cfg),
		analyzer:    s0_metrics.NewAnalyzer(log),
		advisors:    s1_advisors.DefaultAdvisors(cfg, log),
		prioritizer: selection.NewPrioritizer(cfg, log),
		forecaster:  forecast.NewForecaster(cfg, log.Zerolog()),
		assessor:    quality.NewAssessor(cfg, log),
		stats:       NewStats(),
		logger:      log.WithField("component", "brain.orchestrator"),
		now:         time.Now,
		newRunID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Request is one optimization call
type Request struct {
	Campaign  *contracts.CampaignInput
	Goals     []string
	AutoApply *bool // nil = engine config
}

// Stats returns the statistics accumulator
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// Config returns the engine config in use
func (o *Orchestrator) Config() *engineconfig.Config {
	return o.cfg
}

// Optimize runs the full pipeline for one campaign.
// It never returns an error: every failure is reported inside the result.
func (o *Orchestrator) Optimize(ctx context.Context, req Request) (result *contracts.OptimizationResult) {
	start := o.now()
	run := &runState{
		result: &contracts.OptimizationResult{
			Recommendations:      []contracts.Recommendation{},
			PerformanceForecast:  contracts.EmptyForecast(),
			AppliedOptimizations: []string{},
			Errors:               []string{},
			Warnings:             []string{},
			Metadata: contracts.ResultMetadata{
				RunID:         o.newRunID(),
				ConfigHash:    o.configHash,
				StartedAt:     start.UTC(),
				AdvisorCounts: map[string]int{},
				Goals:         []string{},
			},
		},
	}
	if req.Campaign != nil {
		run.result.CampaignID = req.Campaign.CampaignID
	}

	defer func() {
		// 최상위 recover: 어떤 경우에도 caller 에게 panic 전파 안 함
		if r := recover(); r != nil {
			o.logger.WithFields(map[string]interface{}{
				"campaign_id": run.result.CampaignID,
				"state":       run.result.State,
				"panic":       fmt.Sprint(r),
			}).Error("Optimization aborted")
			run.fail(fmt.Sprintf("optimization aborted: %v", r))
		}
		run.result.Metadata.DurationMs = o.now().Sub(start).Milliseconds()
		o.stats.RecordOptimization(run.result)
		result = run.result
	}()

	// VALIDATING
	run.enter(contracts.StateValidating)
	goals, ok := o.validate(req, run)
	if !ok {
		run.fail()
		o.logFinished(run.result)
		return run.result
	}
	campaign := req.Campaign

	// ANALYZING
	run.enter(contracts.StateAnalyzing)
	in := o.analyzer.Analyze(campaign, goals)
	all := o.runAdvisors(ctx, in, run)
	if err := ctx.Err(); err != nil {
		run.result.Errors = append(run.result.Errors, fmt.Sprintf("optimization cancelled: %v", err))
		run.fail()
		o.logFinished(run.result)
		return run.result
	}

	// PRIORITIZING
	run.enter(contracts.StatePrioritizing)
	recs := o.prioritizer.Prioritize(all, goals)
	run.result.Recommendations = recs
	run.result.OptimizationScore = o.optimizationScore(recs)

	// FORECASTING
	run.enter(contracts.StateForecasting)
	run.result.PerformanceForecast = o.forecaster.Forecast(in.Metrics, forecastInput(recs, o.cfg.Forecast.TopN))

	// AUTO_APPLYING (optional)
	autoApply := o.cfg.Orchestrator.AutoApply.Enabled
	if req.AutoApply != nil {
		autoApply = *req.AutoApply
	}
	if autoApply {
		run.enter(contracts.StateAutoApplying)
		run.result.AppliedOptimizations = o.autoApply(recs)
	}

	// DONE
	run.enter(contracts.StateDone)
	run.result.Success = true
	o.logFinished(run.result)
	return run.result
}

// OptimizeCampaign resolves the campaign snapshot by id, then runs Optimize.
// autoApply nil = engine config.
func (o *Orchestrator) OptimizeCampaign(ctx context.Context, campaignID string, goals []string, autoApply *bool) *contracts.OptimizationResult {
	campaign, err := o.fetch(ctx, campaignID)
	if err != nil {
		failed := contracts.NewFailedResult(campaignID, err.Error())
		failed.Metadata = contracts.ResultMetadata{
			RunID:         o.newRunID(),
			ConfigHash:    o.configHash,
			StartedAt:     o.now().UTC(),
			States:        []contracts.OptimizationState{contracts.StateValidating, contracts.StateFailed},
			AdvisorCounts: map[string]int{},
			Goals:         []string{},
		}
		o.stats.RecordOptimization(failed)
		return failed
	}
	return o.Optimize(ctx, Request{Campaign: campaign, Goals: goals, AutoApply: autoApply})
}

// AssessQuality computes the quality assessment of one campaign
func (o *Orchestrator) AssessQuality(_ context.Context, campaign *contracts.CampaignInput) *contracts.QualityAssessment {
	assessment := o.assessor.Assess(campaign)
	o.stats.RecordAssessment(assessment)
	return assessment
}

// AssessCampaign resolves the campaign snapshot by id, then runs AssessQuality
func (o *Orchestrator) AssessCampaign(ctx context.Context, campaignID string) (*contracts.QualityAssessment, error) {
	campaign, err := o.fetch(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return o.AssessQuality(ctx, campaign), nil
}

// fetch never panics: a provider panic becomes an error and a nil snapshot
// is ErrCampaignNotFound
func (o *Orchestrator) fetch(ctx context.Context, campaignID string) (campaign *contracts.CampaignInput, err error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, ErrMissingCampaignID
	}
	if o.provider == nil {
		return nil, ErrNoSnapshotProvider
	}

	defer func() {
		if r := recover(); r != nil {
			campaign = nil
			err = fmt.Errorf("get campaign %s: snapshot provider panic: %v", campaignID, r)
		}
	}()

	campaign, err = o.provider.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get campaign %s: %w", campaignID, err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("get campaign %s: %w", campaignID, contracts.ErrCampaignNotFound)
	}
	if campaign.CampaignID == "" {
		campaign.CampaignID = campaignID
	}
	return campaign, nil
}

// validate collects input errors (stop) and data-quality warnings (continue)
func (o *Orchestrator) validate(req Request, run *runState) (contracts.GoalSet, bool) {
	c := req.Campaign
	if c == nil {
		run.result.Errors = append(run.result.Errors, ErrMissingCampaign.Error())
		return nil, false
	}
	if strings.TrimSpace(c.CampaignID) == "" {
		run.result.Errors = append(run.result.Errors, ErrMissingCampaignID.Error())
		return nil, false
	}

	rawGoals := req.Goals
	if len(rawGoals) == 0 {
		rawGoals = o.cfg.Orchestrator.DefaultGoals
	}
	goals, unknown := contracts.ParseGoals(rawGoals)
	for _, g := range unknown {
		run.warn("unknown optimization goal %q ignored", g)
	}
	run.result.Metadata.Goals = goals.Strings()
	run.result.Metadata.KeywordCount = len(c.Keywords)
	run.result.Metadata.AdCount = len(c.Ads)

	oc := o.cfg.Orchestrator
	if len(c.Keywords) < oc.MinKeywords {
		run.warn("campaign has very few keywords (%d, recommended at least %d)", len(c.Keywords), oc.MinKeywords)
	}
	if len(c.Ads) < oc.MinAds {
		run.warn("campaign has very few ads (%d, recommended at least %d)", len(c.Ads), oc.MinAds)
	}
	if strings.TrimSpace(c.Name) == "" {
		run.warn("campaign name is missing")
	}
	if c.Budget == nil {
		run.warn("campaign budget is missing; budget rules skipped")
	}
	if c.Performance == nil {
		run.warn("campaign performance is missing; keyword metrics are rolled up")
	}
	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw.Text) == "" {
			run.warn("keyword %d has empty text", i)
		}
		if !kw.MatchType.Valid() {
			run.warn("keyword %q has unknown match type %q", kw.Text, kw.MatchType)
		}
		if kw.Bid < 0 {
			run.warn("keyword %q has a negative bid", kw.Text)
		}
	}
	for i, ad := range c.Ads {
		if strings.TrimSpace(ad.ID) == "" {
			run.warn("ad %d has no id", i)
		}
	}

	return goals, true
}

// runAdvisors invokes every advisor in order; a failing advisor contributes
// no recommendations and a warning, the rest still run
func (o *Orchestrator) runAdvisors(ctx context.Context, in *contracts.AnalysisInput, run *runState) []contracts.Recommendation {
	var all []contracts.Recommendation
	for _, adv := range o.advisors {
		recs, err := safeAnalyze(ctx, adv, in)
		if err != nil {
			run.warn("advisor %s failed: %v", adv.Name(), err)
			o.logger.WithFields(map[string]interface{}{
				"advisor":     adv.Name(),
				"campaign_id": in.Campaign.CampaignID,
				"error":       err.Error(),
			}).Warn("Advisor failed")
			run.result.Metadata.AdvisorCounts[adv.Name()] = 0
			continue
		}
		run.result.Metadata.AdvisorCounts[adv.Name()] = len(recs)
		all = append(all, recs...)
	}
	return all
}

// safeAnalyze converts an advisor panic into an error
func safeAnalyze(ctx context.Context, adv contracts.Advisor, in *contracts.AnalysisInput) (recs []contracts.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			recs = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return adv.Analyze(ctx, in)
}

// forecastInput selects the prioritized recommendations the forecast is built from (topN <= 0 = all)
func forecastInput(recs []contracts.Recommendation, topN int) []contracts.Recommendation {
	if topN > 0 && len(recs) > topN {
		return recs[:topN]
	}
	return recs
}

// optimizationScore = clamp(100 − Σ penalty[priority])
func (o *Orchestrator) optimizationScore(recs []contracts.Recommendation) float64 {
	score := 100.0
	for _, r := range recs {
		score -= o.cfg.Orchestrator.ScorePenalties.For(r.Priority)
	}
	return contracts.ClampScore(score)
}

// autoApply records high-confidence, low-risk recommendation ids.
// Nothing outside the result is changed.
func (o *Orchestrator) autoApply(recs []contracts.Recommendation) []string {
	applied := []string{}
	threshold := o.cfg.Orchestrator.AutoApply.ConfidenceThreshold
	for _, r := range recs {
		if r.ConfidenceScore >= threshold && r.RiskLevel == contracts.RiskLow {
			applied = append(applied, r.ID)
		}
	}
	return applied
}

func (o *Orchestrator) logFinished(r *contracts.OptimizationResult) {
	o.logger.WithFields(map[string]interface{}{
		"run_id":             r.Metadata.RunID,
		"campaign_id":        r.CampaignID,
		"success":            r.Success,
		"state":              r.State,
		"optimization_score": r.OptimizationScore,
		"recommendations":    len(r.Recommendations),
		"applied":            len(r.AppliedOptimizations),
		"warnings":           len(r.Warnings),
		"errors":             len(r.Errors),
	}).Info("Optimization finished")
}

// runState tracks the state machine of one run
type runState struct {
	result *contracts.OptimizationResult
}

func (s *runState) enter(state contracts.OptimizationState) {
	s.result.State = state
	s.result.Metadata.States = append(s.result.Metadata.States, state)
}

func (s *runState) warn(format string, args ...interface{}) {
	s.result.Warnings = append(s.result.Warnings, fmt.Sprintf(format, args...))
}

// fail turns the result into the zero score failed result, keeping metadata and messages
func (s *runState) fail(errs ...string) {
	failed := contracts.NewFailedResult(s.result.CampaignID, append(s.result.Errors, errs...)...)
	failed.Warnings = append(failed.Warnings, s.result.Warnings...)
	failed.Metadata = s.result.Metadata
	failed.Metadata.States = append(failed.Metadata.States, contracts.StateFailed)
	s.result = failed
}
