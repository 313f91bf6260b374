package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/internal/s1_advisors"
	"github.com/wonny/adpilot/pkg/logger"
)

type stubAdvisor struct {
	name string
	recs []contracts.Recommendation
	err  error
	boom bool
}

func (s stubAdvisor) Name() string { return s.name }

func (s stubAdvisor) Analyze(context.Context, *contracts.AnalysisInput) ([]contracts.Recommendation, error) {
	if s.boom {
		panic("advisor exploded")
	}
	return s.recs, s.err
}

type badNameAdvisor struct{ stubAdvisor }

func (badNameAdvisor) Name() string { panic("name unavailable") }

type mapProvider map[string]*contracts.CampaignInput

func (m mapProvider) GetCampaign(_ context.Context, id string) (*contracts.CampaignInput, error) {
	c, ok := m[id]
	if !ok {
		return nil, contracts.ErrCampaignNotFound
	}
	return c, nil
}

func perf(impressions, clicks int64) *contracts.PerformanceInput {
	return &contracts.PerformanceInput{
		Impressions: contracts.Ptr(impressions),
		Clicks:      contracts.Ptr(clicks),
	}
}

func newOrchestrator(opts ...Option) *Orchestrator {
	return NewOrchestrator(engineconfig.Default(), logger.Nop(), opts...)
}

// campaign returns a well formed campaign with the given keywords
func campaign(keywords ...contracts.Keyword) *contracts.CampaignInput {
	return &contracts.CampaignInput{
		CampaignID:      "c-1",
		Name:            "Shoes",
		Budget:          contracts.Ptr(100.0),
		BiddingStrategy: &contracts.BiddingStrategy{Type: "TARGET_CPA"},
		Targeting:       &contracts.Targeting{Audiences: []string{"in-market"}},
		Keywords:        keywords,
		Ads: []contracts.Ad{
			{ID: "a1", Headlines: []string{"Shoes", "Sale", "Shop"}, Descriptions: []string{"Shoes on sale.", "Free returns."}, FinalURL: "https://shop.example.com"},
			{ID: "a2", Headlines: []string{"Boots", "Sale", "Shop"}, Descriptions: []string{"Boots on sale.", "Free returns."}, FinalURL: "https://shop.example.com"},
		},
		Performance: &contracts.PerformanceInput{
			Impressions:   contracts.Ptr(int64(10000)),
			Clicks:        contracts.Ptr(int64(500)),
			Conversions:   contracts.Ptr(25.0),
			AvgDailySpend: contracts.Ptr(40.0),
		},
	}
}

func indexOf(recs []contracts.Recommendation, match func(contracts.Recommendation) bool) int {
	for i, r := range recs {
		if match(r) {
			return i
		}
	}
	return -1
}

func TestOptimize_MissingCampaignID(t *testing.T) {
	o := newOrchestrator()
	c := campaign()
	c.CampaignID = "  "

	r := o.Optimize(context.Background(), Request{Campaign: c})

	assert.False(t, r.Success)
	assert.Equal(t, contracts.StateFailed, r.State)
	assert.Equal(t, []string{"campaign_id is required"}, r.Errors)
	assert.Empty(t, r.Recommendations)
	assert.Equal(t, 0.0, r.OptimizationScore)
	assert.Equal(t, []contracts.OptimizationState{contracts.StateValidating, contracts.StateFailed}, r.Metadata.States)
}

func TestOptimize_NilCampaign(t *testing.T) {
	r := newOrchestrator().Optimize(context.Background(), Request{})
	assert.False(t, r.Success)
	assert.Equal(t, []string{"campaign is required"}, r.Errors)
}

func TestOptimize_KeywordScenario(t *testing.T) {
	m := perf(1000, 5)
	m.QualityScore = contracts.Ptr(3.0)
	kw := contracts.Keyword{Text: "running shoes", MatchType: contracts.MatchExact, Bid: 1, Metrics: m}

	r := newOrchestrator().Optimize(context.Background(), Request{Campaign: campaign(kw)})
	require.True(t, r.Success)

	key := kw.Key()
	ctr := indexOf(r.Recommendations, func(rec contracts.Recommendation) bool {
		return rec.Category == contracts.CategoryKeywordOptimization && rec.Priority == contracts.PriorityHigh &&
			contains(rec.AffectedEntities, key)
	})
	qs := indexOf(r.Recommendations, func(rec contracts.Recommendation) bool {
		return rec.Category == contracts.CategoryQualityImprovement && rec.Priority == contracts.PriorityCritical &&
			contains(rec.AffectedEntities, key)
	})

	require.GreaterOrEqual(t, ctr, 0, "HIGH CTR recommendation")
	require.GreaterOrEqual(t, qs, 0, "CRITICAL quality score recommendation")
	assert.Less(t, qs, ctr)
}

func TestOptimize_BudgetScenario(t *testing.T) {
	c := campaign()
	c.Performance.AvgDailySpend = contracts.Ptr(98.0)

	r := newOrchestrator().Optimize(context.Background(), Request{Campaign: c})
	require.True(t, r.Success)

	var budget []contracts.Recommendation
	for _, rec := range r.Recommendations {
		if rec.Category == contracts.CategoryBudget {
			budget = append(budget, rec)
		}
	}
	require.Len(t, budget, 1)
	assert.Equal(t, contracts.PriorityHigh, budget[0].Priority)
}

func TestOptimize_EmptyKeywords(t *testing.T) {
	o := newOrchestrator()
	c := campaign()
	c.Keywords = []contracts.Keyword{}

	r := o.Optimize(context.Background(), Request{Campaign: c})
	require.True(t, r.Success)
	assert.True(t, hasWarning(r, "very few keywords"))

	qa := o.AssessQuality(context.Background(), c)
	m, ok := qa.Metric(contracts.DimensionCompleteness)
	require.True(t, ok)
	assert.Equal(t, 80.0, m.Score)
}

func TestOptimize_Idempotent(t *testing.T) {
	m := perf(1000, 5)
	m.QualityScore = contracts.Ptr(2.0)
	m.ImpressionShare = contracts.Ptr(0.1)
	c := campaign(
		contracts.Keyword{Text: "a", MatchType: contracts.MatchBroad, Bid: 1, Metrics: m},
		contracts.Keyword{Text: "b", MatchType: contracts.MatchBroad, Bid: 1, Metrics: m},
		contracts.Keyword{Text: "c", MatchType: contracts.MatchBroad, Bid: 1, Metrics: m},
	)
	c.BiddingStrategy.Type = "MANUAL_CPC"
	c.Ads[0].FinalURL = ""

	o := newOrchestrator()
	first := o.Optimize(context.Background(), Request{Campaign: c, Goals: []string{"maximize_conversions"}})
	second := o.Optimize(context.Background(), Request{Campaign: c, Goals: []string{"maximize_conversions"}})

	require.NotEmpty(t, first.Recommendations)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.Equal(t, first.OptimizationScore, second.OptimizationScore)
	assert.Equal(t, first.PerformanceForecast, second.PerformanceForecast)
	assert.Equal(t, o.AssessQuality(context.Background(), c).OverallScore, o.AssessQuality(context.Background(), c).OverallScore)
}

func TestOptimize_OrderingAndScoreBounds(t *testing.T) {
	var keywords []contracts.Keyword
	for i := 0; i < 30; i++ {
		m := perf(1000, int64(i%3))
		m.QualityScore = contracts.Ptr(float64(i % 10))
		m.ImpressionShare = contracts.Ptr(float64(i%5) / 10)
		keywords = append(keywords, contracts.Keyword{Text: strings.Repeat("k", i+1), MatchType: contracts.MatchPhrase, Bid: 1, Metrics: m})
	}

	r := newOrchestrator().Optimize(context.Background(), Request{Campaign: campaign(keywords...)})
	require.True(t, r.Success)
	require.NotEmpty(t, r.Recommendations)

	for i := 1; i < len(r.Recommendations); i++ {
		assert.GreaterOrEqual(t, r.Recommendations[i-1].PriorityScore, r.Recommendations[i].PriorityScore)
	}
	assert.GreaterOrEqual(t, r.OptimizationScore, 0.0)
	assert.LessOrEqual(t, r.OptimizationScore, 100.0)
	assert.Equal(t, 0.0, r.OptimizationScore) // many CRITICAL findings
}

func TestOptimize_OptimizationScore(t *testing.T) {
	o := newOrchestrator(WithAdvisors(stubAdvisor{name: "fixed", recs: []contracts.Recommendation{
		{ID: "1", Priority: contracts.PriorityCritical},
		{ID: "2", Priority: contracts.PriorityHigh},
		{ID: "3", Priority: contracts.PriorityLow},
	}}))

	r := o.Optimize(context.Background(), Request{Campaign: campaign()})
	assert.Equal(t, 100.0-15-10-2, r.OptimizationScore)

	r = newOrchestrator(WithAdvisors()).Optimize(context.Background(), Request{Campaign: campaign()})
	assert.Equal(t, 100.0, r.OptimizationScore)
}

func TestOptimize_AdvisorFaultIsolation(t *testing.T) {
	good := stubAdvisor{name: "good", recs: []contracts.Recommendation{{ID: "ok", Priority: contracts.PriorityLow}}}
	o := newOrchestrator(WithAdvisors(
		stubAdvisor{name: "erroring", err: errors.New("bad data")},
		stubAdvisor{name: "panicking", boom: true},
		good,
	))

	r := o.Optimize(context.Background(), Request{Campaign: campaign()})

	require.True(t, r.Success)
	require.Len(t, r.Recommendations, 1)
	assert.Equal(t, "ok", r.Recommendations[0].ID)
	assert.True(t, hasWarning(r, "advisor erroring failed: bad data"))
	assert.True(t, hasWarning(r, "advisor panicking failed: panic: advisor exploded"))
	assert.Equal(t, map[string]int{"erroring": 0, "panicking": 0, "good": 1}, r.Metadata.AdvisorCounts)
}

func TestOptimize_TopLevelRecover(t *testing.T) {
	o := newOrchestrator(WithAdvisors(badNameAdvisor{stubAdvisor{err: errors.New("x")}}))

	var r *contracts.OptimizationResult
	require.NotPanics(t, func() {
		r = o.Optimize(context.Background(), Request{Campaign: campaign()})
	})
	assert.False(t, r.Success)
	assert.Equal(t, contracts.StateFailed, r.State)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "name unavailable")
	assert.Empty(t, r.Recommendations)
	assert.Equal(t, int64(1), o.Stats().Snapshot().FailedOptimizations)
}

func TestOptimize_AutoApply(t *testing.T) {
	m := perf(1000, 5)
	m.QualityScore = contracts.Ptr(3.0)
	c := campaign(contracts.Keyword{Text: "shoes", MatchType: contracts.MatchExact, Bid: 1, Metrics: m})
	c.Ads[0].Headlines[0] = strings.Repeat("x", 40)

	enabled := true
	r := newOrchestrator().Optimize(context.Background(), Request{Campaign: c, AutoApply: &enabled})
	require.True(t, r.Success)
	require.NotEmpty(t, r.AppliedOptimizations)
	assert.Contains(t, r.Metadata.States, contracts.StateAutoApplying)

	byID := map[string]contracts.Recommendation{}
	for _, rec := range r.Recommendations {
		byID[rec.ID] = rec
	}
	for _, id := range r.AppliedOptimizations {
		rec, ok := byID[id]
		require.True(t, ok)
		assert.GreaterOrEqual(t, rec.ConfidenceScore, 0.9)
		assert.Equal(t, contracts.RiskLow, rec.RiskLevel)
	}
	for _, rec := range r.Recommendations {
		if rec.ConfidenceScore >= 0.9 && rec.RiskLevel == contracts.RiskLow {
			assert.Contains(t, r.AppliedOptimizations, rec.ID)
		}
	}

	// 기본 설정: auto-apply 비활성
	r = newOrchestrator().Optimize(context.Background(), Request{Campaign: c})
	assert.Empty(t, r.AppliedOptimizations)
	assert.NotContains(t, r.Metadata.States, contracts.StateAutoApplying)
	assert.Equal(t, contracts.StateDone, r.State)
}

func TestOptimize_Goals(t *testing.T) {
	r := newOrchestrator().Optimize(context.Background(), Request{
		Campaign: campaign(),
		Goals:    []string{"minimize_cost", "win_everything", "MINIMIZE_COST"},
	})
	require.True(t, r.Success)
	assert.Equal(t, []string{"minimize_cost"}, r.Metadata.Goals)
	assert.True(t, hasWarning(r, `unknown optimization goal "win_everything" ignored`))

	r = newOrchestrator().Optimize(context.Background(), Request{Campaign: campaign()})
	assert.Equal(t, []string{"maximize_conversions"}, r.Metadata.Goals)
}

func TestOptimize_GoalBonusReordersTies(t *testing.T) {
	recs := []contracts.Recommendation{
		{ID: "plain", Priority: contracts.PriorityMedium, Description: "generic"},
		{ID: "goal", Priority: contracts.PriorityMedium, Description: "helps minimize cost"},
	}
	o := newOrchestrator(WithAdvisors(stubAdvisor{name: "s", recs: recs}))

	r := o.Optimize(context.Background(), Request{Campaign: campaign(), Goals: []string{"minimize_cost"}})
	require.Len(t, r.Recommendations, 2)
	assert.Equal(t, "goal", r.Recommendations[0].ID)

	r = o.Optimize(context.Background(), Request{Campaign: campaign(), Goals: []string{"maximize_clicks"}})
	assert.Equal(t, "plain", r.Recommendations[0].ID)
}

func TestOptimize_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newOrchestrator().Optimize(ctx, Request{Campaign: campaign(contracts.Keyword{Text: "a", MatchType: contracts.MatchExact, Bid: 1})})
	assert.False(t, r.Success)
	assert.Equal(t, contracts.StateFailed, r.State)
	assert.Contains(t, r.Errors[0], "optimization cancelled")
}

func TestOptimizeCampaign(t *testing.T) {
	provider := mapProvider{"c-1": campaign()}
	o := newOrchestrator(WithSnapshotProvider(provider))

	r := o.OptimizeCampaign(context.Background(), "c-1", nil, nil)
	assert.True(t, r.Success)
	assert.Equal(t, "c-1", r.CampaignID)

	r = o.OptimizeCampaign(context.Background(), "missing", nil, nil)
	assert.False(t, r.Success)
	assert.Contains(t, r.Errors[0], contracts.ErrCampaignNotFound.Error())

	r = newOrchestrator().OptimizeCampaign(context.Background(), "c-1", nil, nil)
	assert.False(t, r.Success)
	assert.Equal(t, []string{ErrNoSnapshotProvider.Error()}, r.Errors)

	_, err := o.AssessCampaign(context.Background(), "missing")
	assert.ErrorIs(t, err, contracts.ErrCampaignNotFound)

	qa, err := o.AssessCampaign(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", qa.CampaignID)

	snap := o.Stats().Snapshot()
	assert.Equal(t, int64(2), snap.TotalOptimizations)
	assert.Equal(t, int64(1), snap.FailedOptimizations)
	assert.Equal(t, int64(1), snap.QualityAssessments)
}

type nilProvider struct{}

func (nilProvider) GetCampaign(context.Context, string) (*contracts.CampaignInput, error) {
	return nil, nil
}

type panicProvider struct{}

func (panicProvider) GetCampaign(context.Context, string) (*contracts.CampaignInput, error) {
	panic("snapshot store unreachable")
}

func TestOptimizeCampaign_ProviderNeverPanicsCaller(t *testing.T) {
	o := newOrchestrator(WithSnapshotProvider(nilProvider{}))

	var r *contracts.OptimizationResult
	require.NotPanics(t, func() {
		r = o.OptimizeCampaign(context.Background(), "c-1", nil, nil)
	})
	assert.False(t, r.Success)
	assert.Equal(t, contracts.StateFailed, r.State)
	assert.Contains(t, r.Errors[0], contracts.ErrCampaignNotFound.Error())

	_, err := o.AssessCampaign(context.Background(), "c-1")
	assert.ErrorIs(t, err, contracts.ErrCampaignNotFound)

	o = newOrchestrator(WithSnapshotProvider(panicProvider{}))
	require.NotPanics(t, func() {
		r = o.OptimizeCampaign(context.Background(), "c-1", nil, nil)
	})
	assert.False(t, r.Success)
	assert.Contains(t, r.Errors[0], "snapshot store unreachable")
}

func TestOptimizeCampaign_AutoApplyOverride(t *testing.T) {
	rec := contracts.Recommendation{ID: "safe", Priority: contracts.PriorityLow, ConfidenceScore: 0.95, RiskLevel: contracts.RiskLow}
	o := newOrchestrator(
		WithSnapshotProvider(mapProvider{"c-1": campaign()}),
		WithAdvisors(stubAdvisor{name: "stub", recs: []contracts.Recommendation{rec}}),
	)

	enabled := true
	r := o.OptimizeCampaign(context.Background(), "c-1", nil, &enabled)
	require.True(t, r.Success)
	assert.Equal(t, []string{"safe"}, r.AppliedOptimizations)

	r = o.OptimizeCampaign(context.Background(), "c-1", nil, nil)
	assert.Empty(t, r.AppliedOptimizations)
}

func TestOptimize_ForecastUsesTopN(t *testing.T) {
	recs := make([]contracts.Recommendation, 12)
	for i := range recs {
		recs[i] = contracts.Recommendation{
			ID:                   fmt.Sprintf("r%02d", i),
			Priority:             contracts.PriorityMedium,
			ConfidenceScore:      1,
			EstimatedImprovement: map[string]float64{"clicks": 0.1},
		}
	}
	advisor := WithAdvisors(stubAdvisor{name: "stub", recs: recs})

	// 기본 top_n=10: 상위 10개만 forecast
	r := newOrchestrator(advisor).Optimize(context.Background(), Request{Campaign: campaign()})
	require.True(t, r.Success)
	require.Len(t, r.Recommendations, 12)
	assert.Len(t, r.PerformanceForecast.RecommendationIDs, 10)
	assert.InDelta(t, 1000.0, r.PerformanceForecast.Forecasted["clicks"], 1e-9)

	cfg := engineconfig.Default()
	cfg.Forecast.TopN = 0
	r = NewOrchestrator(cfg, logger.Nop(), advisor).Optimize(context.Background(), Request{Campaign: campaign()})
	assert.Len(t, r.PerformanceForecast.RecommendationIDs, 12)
	assert.InDelta(t, 1100.0, r.PerformanceForecast.Forecasted["clicks"], 1e-9)
}

func TestOptimize_ConcurrentStats(t *testing.T) {
	stats := NewStats()
	o := newOrchestrator(WithStats(stats))

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := campaign()
			if i%4 == 0 {
				c.CampaignID = ""
			}
			o.Optimize(context.Background(), Request{Campaign: c})
		}(i)
	}
	wg.Wait()

	snap := stats.Snapshot()
	assert.Equal(t, int64(n), snap.TotalOptimizations)
	assert.Equal(t, int64(n/4), snap.FailedOptimizations)
	assert.Equal(t, int64(n-n/4), snap.SuccessfulOptimizations)
	assert.GreaterOrEqual(t, snap.AverageScore, 0.0)
	assert.LessOrEqual(t, snap.AverageScore, 100.0)
}

func TestOptimize_DefaultAdvisorsInMetadata(t *testing.T) {
	r := newOrchestrator().Optimize(context.Background(), Request{Campaign: campaign()})
	for _, adv := range s1_advisors.DefaultAdvisors(engineconfig.Default(), logger.Nop()) {
		assert.Contains(t, r.Metadata.AdvisorCounts, adv.Name())
	}
	assert.NotEmpty(t, r.Metadata.RunID)
	assert.Len(t, r.Metadata.ConfigHash, 64)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func hasWarning(r *contracts.OptimizationResult, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
