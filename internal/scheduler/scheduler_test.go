package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/adpilot/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("temporary failure")
	}
	return nil
}

type panicJob struct{ calls atomic.Int32 }

func (j *panicJob) Name() string     { return "panicky" }
func (j *panicJob) Schedule() string { return "@daily" }

func (j *panicJob) Run(context.Context) error {
	j.calls.Add(1)
	var m map[string]int
	m["boom"]++ // nil map write
	return nil
}

func newScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "0 0 6 * * *"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	err := s.AddJob(&fakeJob{name: "a", schedule: "@hourly"})
	assert.EqualError(t, err, "job a already exists")

	err = s.AddJob(&fakeJob{name: "bad", schedule: "not a cron"})
	assert.Error(t, err)

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunJobNow_RetriesUntilSuccess(t *testing.T) {
	s := newScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), job.calls.Load())

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestRunJobNow_FailsAfterRetries(t *testing.T) {
	s := newScheduler()
	job := &fakeJob{name: "broken", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "temporary failure", result.Error)
	assert.Equal(t, int32(3), job.calls.Load()) // 1 + 2 retries

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	assert.Equal(t, 0.0, history.GetSuccessRate())
	assert.Len(t, history.GetFailedResults(), 1)
}

func TestRunJobNow_UnknownJob(t *testing.T) {
	_, err := newScheduler().RunJobNow(context.Background(), "missing")
	assert.EqualError(t, err, "job missing not found")
	assert.Error(t, newScheduler().RunJob("missing"))
}

func TestRunJobNow_PanicBecomesFailure(t *testing.T) {
	s := newScheduler()
	job := &panicJob{}
	require.NoError(t, s.AddJob(job))

	var (
		result JobResult
		err    error
	)
	require.NotPanics(t, func() {
		result, err = s.RunJobNow(context.Background(), "panicky")
	})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "job panicky panicked")
	assert.Equal(t, int32(3), job.calls.Load(), "panics are retried like errors")

	history, err := s.GetJobHistory("panicky")
	require.NoError(t, err)
	assert.Equal(t, 0.0, history.GetSuccessRate())
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	// 같은 이름으로 다시 등록 가능
	assert.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))
}

func TestJobHistory_KeepsLatest(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}

func TestStartStop(t *testing.T) {
	s := newScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))
	s.Start()
	s.Stop()
}
