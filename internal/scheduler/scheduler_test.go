package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/logger"
)

type scriptedJob struct {
	name     string
	schedule string
	errs     []error
	runs     int
}

func (j *scriptedJob) Name() string     { return j.name }
func (j *scriptedJob) Schedule() string { return j.schedule }
func (j *scriptedJob) Run(ctx context.Context) error {
	j.runs++
	if j.runs <= len(j.errs) {
		return j.errs[j.runs-1]
	}
	return nil
}

func newTestScheduler() *Scheduler {
	s := New(logger.Nop(), WithRetries(2, time.Minute))
	s.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return s
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&scriptedJob{name: "b", schedule: "0 30 16 * * 1-5"}))
	require.NoError(t, s.AddJob(&scriptedJob{name: "a", schedule: "@daily"}))
	assert.Error(t, s.AddJob(&scriptedJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&scriptedJob{name: "c", schedule: "30 16 * * 1-5"}), "five fields without seconds")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunJobRetries(t *testing.T) {
	s := newTestScheduler()
	job := &scriptedJob{name: "flaky", schedule: "@daily", errs: []error{errors.New("503")}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 2, job.runs)

	_, err = s.RunJob(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRunJobFailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	boom := errors.New("boom")
	job := &scriptedJob{name: "broken", schedule: "@daily", errs: []error{boom, boom, boom, boom}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "boom", result.Error)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
	assert.Equal(t, "@daily", stats.Schedule)
}

func TestRunJobStopsOnCancel(t *testing.T) {
	s := newTestScheduler()
	job := &scriptedJob{name: "slow", schedule: "@daily", errs: []error{errors.New("timeout"), errors.New("timeout")}}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := s.RunJob(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, job.runs)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	base := time.Date(2024, 1, 2, 16, 30, 0, 0, time.UTC)
	for i := 0; i < 105; i++ {
		h.Add(JobResult{JobName: "x", StartTime: base.Add(time.Duration(i) * time.Minute), Success: i%5 != 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.Latest(3), 3)
	assert.Empty(t, h.Latest(0))

	st := h.Stats("x", "@daily")
	assert.Equal(t, 100, st.TotalRuns)
	assert.Equal(t, 20, st.FailureCount)
	assert.InDelta(t, 0.8, st.SuccessRate, 1e-9)
	require.NotNil(t, st.LastSuccess)
	require.NotNil(t, st.LastFailure)
	assert.Equal(t, base.Add(104*time.Minute), *st.LastSuccess)
	assert.Equal(t, base.Add(100*time.Minute), *st.LastFailure)

	assert.Zero(t, (&JobHistory{}).Stats("y", "@daily").SuccessRate)
}

type fakeScreener struct {
	tickers []string
	err     error
}

func (f *fakeScreener) ScreenBatch(ctx context.Context, tickers []string) (*contracts.BatchResult, error) {
	f.tickers = tickers
	batch := &contracts.BatchResult{BatchID: "b-1"}
	for _, t := range tickers {
		batch.Outcomes = append(batch.Outcomes, contracts.Outcome{Ticker: t, Status: contracts.StatusPass})
	}
	return batch, f.err
}

type fakeResolver struct {
	tickers []string
	err     error
}

func (f fakeResolver) Resolve(ctx context.Context, name string) ([]string, error) {
	return f.tickers, f.err
}

func TestRefreshJob(t *testing.T) {
	scr := &fakeScreener{}
	job := NewRefreshJob(scr, fakeResolver{tickers: []string{"AAPL", "MSFT"}}, "watchlist", "", nil)

	var seen *contracts.BatchResult
	job.OnBatch = func(b *contracts.BatchResult) { seen = b }

	assert.Equal(t, "refresh_watchlist", job.Name())
	assert.Equal(t, DefaultRefreshSchedule, job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"AAPL", "MSFT"}, scr.tickers)
	require.NotNil(t, seen)
	assert.Len(t, seen.Outcomes, 2)
}

func TestRefreshJobErrors(t *testing.T) {
	resolveErr := errors.New("wikipedia down")
	job := NewRefreshJob(&fakeScreener{}, fakeResolver{err: resolveErr}, "sp500", "@daily", nil)
	assert.ErrorIs(t, job.Run(context.Background()), resolveErr)

	job = NewRefreshJob(&fakeScreener{err: context.Canceled}, fakeResolver{tickers: []string{"AAPL"}}, "sp500", "@daily", nil)
	var partial *contracts.BatchResult
	job.OnBatch = func(b *contracts.BatchResult) { partial = b }
	assert.ErrorIs(t, job.Run(context.Background()), context.Canceled)
	assert.NotNil(t, partial, "partial batch still reported")
}
