package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/internal/engineconfig"
	"github.com/wonny/adpilot/pkg/logger"
)

type emptySnapshotProvider struct{}

func (emptySnapshotProvider) GetCampaign(context.Context, string) (*contracts.CampaignInput, error) {
	return nil, nil
}

type fakeEngine struct {
	scores    map[string]float64 // 없는 id 는 실패
	optimized []string
	goals     [][]string
}

func (f *fakeEngine) OptimizeCampaign(_ context.Context, id string, goals []string, _ *bool) *contracts.OptimizationResult {
	f.optimized = append(f.optimized, id)
	f.goals = append(f.goals, goals)
	score, ok := f.scores[id]
	if !ok {
		r := contracts.NewFailedResult(id, "campaign not found")
		r.Metadata.RunID = "run-" + id
		return r
	}
	return &contracts.OptimizationResult{
		Success:           true,
		CampaignID:        id,
		State:             contracts.StateDone,
		OptimizationScore: score,
		Metadata:          contracts.ResultMetadata{RunID: "run-" + id},
	}
}

func (f *fakeEngine) AssessCampaign(_ context.Context, id string) (*contracts.QualityAssessment, error) {
	if _, ok := f.scores[id]; !ok {
		return nil, contracts.ErrCampaignNotFound
	}
	return &contracts.QualityAssessment{CampaignID: id, OverallScore: 80}, nil
}

type memSaver struct {
	runs []string
	qas  []string
	fail bool
}

func (m *memSaver) SaveOptimization(_ context.Context, r *contracts.OptimizationResult) error {
	if m.fail {
		return errors.New("db down")
	}
	m.runs = append(m.runs, r.Metadata.RunID)
	return nil
}

func (m *memSaver) SaveAssessment(_ context.Context, qa *contracts.QualityAssessment) error {
	if m.fail {
		return errors.New("db down")
	}
	m.qas = append(m.qas, qa.CampaignID)
	return nil
}

func sweepConfig(ids ...string) SweepConfig {
	return SweepConfig{Campaigns: ids, Goals: []string{"maximize_clicks"}, RPS: 1000}
}

func TestCampaignSweep_PartialFailure(t *testing.T) {
	engine := &fakeEngine{scores: map[string]float64{"c-1": 80, "c-3": 60}}
	saver := &memSaver{}
	job := NewCampaignSweepJob(engine, saver, sweepConfig("c-1", "c-2", "c-3"), logger.Nop())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, engine.optimized)
	assert.Equal(t, []string{"maximize_clicks"}, engine.goals[0])
	assert.Equal(t, []string{"run-c-1", "run-c-2", "run-c-3"}, saver.runs)
	assert.Equal(t, []string{"c-1", "c-3"}, saver.qas)

	summary := job.LastSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Campaigns)
	assert.Equal(t, 2, summary.Optimized)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Assessed)
	assert.Equal(t, 5, summary.Saved)
	assert.InDelta(t, 70.0, summary.AverageScore, 1e-9)
}

func TestCampaignSweep_AllFailedReturnsError(t *testing.T) {
	job := NewCampaignSweepJob(&fakeEngine{}, nil, sweepConfig("x", "y"), logger.Nop())

	err := job.Run(context.Background())
	assert.EqualError(t, err, "campaign sweep: all 2 campaigns failed")
	assert.Equal(t, 0, job.LastSummary().Saved)
}

func TestCampaignSweep_SaveErrorsDoNotFailSweep(t *testing.T) {
	engine := &fakeEngine{scores: map[string]float64{"c-1": 90}}
	job := NewCampaignSweepJob(engine, &memSaver{fail: true}, sweepConfig("c-1"), logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, job.LastSummary().Saved)
}

func TestCampaignSweep_NoCampaigns(t *testing.T) {
	job := NewCampaignSweepJob(&fakeEngine{}, nil, SweepConfig{}, logger.Nop())

	assert.Nil(t, job.LastSummary())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, job.LastSummary().Campaigns)
	assert.Equal(t, "campaign_sweep", job.Name())
	assert.Equal(t, "0 0 6 * * *", job.Schedule())
}

func TestCampaignSweep_Cancelled(t *testing.T) {
	engine := &fakeEngine{scores: map[string]float64{"c-1": 90}}
	job := NewCampaignSweepJob(engine, nil, sweepConfig("c-1"), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := job.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, engine.optimized)
}

func TestCampaignSweep_EmptySnapshotDoesNotPanic(t *testing.T) {
	orch := brain.NewOrchestrator(engineconfig.Default(), logger.Nop(),
		brain.WithSnapshotProvider(emptySnapshotProvider{}))
	job := NewCampaignSweepJob(orch, nil, sweepConfig("c-1", "c-2"), logger.Nop())

	var err error
	require.NotPanics(t, func() { err = job.Run(context.Background()) })
	assert.EqualError(t, err, "campaign sweep: all 2 campaigns failed")
	assert.Equal(t, 2, job.LastSummary().Failed)
}

func TestStatsReportJob(t *testing.T) {
	stats := brain.NewStats()
	job := NewStatsReportJob(stats, logger.Nop())
	assert.Equal(t, "stats_report", job.Name())
	assert.NoError(t, job.Run(context.Background()))

	stats.RecordOptimization(&contracts.OptimizationResult{Success: true, OptimizationScore: 75})
	assert.NoError(t, job.Run(context.Background()))
}
