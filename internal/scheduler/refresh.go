package scheduler

import (
	"context"
	"fmt"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/logger"
)

// DefaultRefreshSchedule runs after the US close on weekdays
const DefaultRefreshSchedule = "0 30 16 * * 1-5"

// Screener runs a batch
type Screener interface {
	ScreenBatch(ctx context.Context, tickers []string) (*contracts.BatchResult, error)
}

// TickerResolver resolves a universe name to tickers
type TickerResolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
}

// RefreshJob re-screens a universe so the cache is warm for the next session
// ⭐ SSOT: 정기 캐시 갱신은 이 Job에서만
type RefreshJob struct {
	screener Screener
	resolver TickerResolver
	universe string
	schedule string
	logger   *logger.Logger

	// OnBatch receives every finished batch, partial ones included
	OnBatch func(*contracts.BatchResult)
}

// NewRefreshJob creates a refresh job for universe on schedule
func NewRefreshJob(s Screener, r TickerResolver, universe, schedule string, log *logger.Logger) *RefreshJob {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RefreshJob{
		screener: s,
		resolver: r,
		universe: universe,
		schedule: schedule,
		logger:   log,
	}
}

func (j *RefreshJob) Name() string {
	return "refresh_" + j.universe
}

func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run resolves the universe and screens it
func (j *RefreshJob) Run(ctx context.Context) error {
	tickers, err := j.resolver.Resolve(ctx, j.universe)
	if err != nil {
		return fmt.Errorf("resolve universe %s: %w", j.universe, err)
	}

	batch, err := j.screener.ScreenBatch(ctx, tickers)
	if batch != nil && j.OnBatch != nil {
		j.OnBatch(batch)
	}
	if err != nil {
		return fmt.Errorf("screen universe %s: %w", j.universe, err)
	}

	counts := batch.Counts()
	j.logger.WithFields(map[string]interface{}{
		"universe":   j.universe,
		"batch_id":   batch.BatchID,
		"pass":       counts[contracts.StatusPass],
		"fail":       counts[contracts.StatusFail],
		"incomplete": counts[contracts.StatusIncomplete],
	}).Info("Universe refreshed")
	return nil
}
