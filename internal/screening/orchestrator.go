// Package screening runs batches of tickers through cache lookup, fetch, metric computation
// and persistence, and classifies each as PASS, FAIL or INCOMPLETE.
package screening

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/canslim/internal/canslim"
	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/logger"
)

// DataSource is the fetch surface; *fetcher.Fetcher implements it
type DataSource interface {
	FetchPriceHistory(ctx context.Context, ticker string, window time.Duration) ([]contracts.PricePoint, error)
	FetchBenchmarkHistory(ctx context.Context, benchmark string, window time.Duration) ([]contracts.PricePoint, error)
	FetchQuarterlyFinancials(ctx context.Context, ticker string) (contracts.EarningsPair, error)
	FetchCompanyMetadata(ctx context.Context, ticker string) (*contracts.CompanyMetadata, error)
}

// Config holds batch parameters
type Config struct {
	Thresholds      canslim.Thresholds
	Params          canslim.Params
	HistoryWindow   time.Duration
	Benchmark       string
	FreshnessWindow time.Duration
	Concurrency     int
	ProfileHash     string
}

// DefaultConfig returns SPY benchmark, 24h freshness, sequential processing
func DefaultConfig() Config {
	return Config{
		Thresholds:      canslim.DefaultThresholds(),
		Params:          canslim.DefaultParams(),
		HistoryWindow:   400 * 24 * time.Hour,
		Benchmark:       "SPY",
		FreshnessWindow: 24 * time.Hour,
		Concurrency:     1,
	}
}

// ConfigFrom maps env configuration onto batch parameters
func ConfigFrom(cfg *config.Config) Config {
	s := cfg.Screening
	return Config{
		Thresholds: canslim.Thresholds{
			EarningsGrowthMin:   s.EarningsGrowthThreshold,
			RelativeStrengthMin: s.RelativeStrengthMin,
		},
		Params: canslim.Params{
			SMAPeriod:  s.SMAPeriod,
			RSLookback: s.RSLookbackDays,
		},
		HistoryWindow:   time.Duration(s.HistoryDays) * 24 * time.Hour,
		Benchmark:       s.Benchmark,
		FreshnessWindow: s.FreshnessWindow,
		Concurrency:     s.Concurrency,
	}
}

// Orchestrator screens batches of tickers
// ⭐ SSOT: 스크리닝 파이프라인 (캐시 → 수집 → 계산 → 저장 → 판정)
type Orchestrator struct {
	cfg       Config
	source    DataSource
	cache     contracts.ResultCache
	logger    *logger.Logger
	metrics   *telemetry.Metrics
	now       func() time.Time
	onOutcome func(contracts.Outcome)
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithCache enables cache lookups and writes; without it every ticker is fetched
func WithCache(c contracts.ResultCache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithMetrics records per-ticker and per-batch metrics
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock sets the clock used for batch timing
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithOutcomeHook is called once per finished ticker, never concurrently
func WithOutcomeHook(fn func(contracts.Outcome)) Option {
	return func(o *Orchestrator) { o.onOutcome = fn }
}

// New creates an Orchestrator
func New(cfg Config, source DataSource, log *logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	o := &Orchestrator{
		cfg:    cfg,
		source: source,
		logger: log.WithComponent("screening"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the batch parameters
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// ScreenBatch screens every valid ticker and returns one outcome per ticker
// Invalid inputs are reported in Rejected; only zero valid tickers is an error.
// On cancellation no new ticker starts, in-flight tickers finish, and the partial
// batch is returned together with ctx.Err().
func (o *Orchestrator) ScreenBatch(ctx context.Context, tickers []string) (*contracts.BatchResult, error) {
	return o.ScreenBatchFunc(ctx, tickers, nil)
}

// ScreenBatchFunc is ScreenBatch with a per-call hook invoked after the orchestrator-wide one
func (o *Orchestrator) ScreenBatchFunc(ctx context.Context, tickers []string, fn func(contracts.Outcome)) (*contracts.BatchResult, error) {
	valid, rejected := Normalize(tickers)
	if len(valid) == 0 {
		return nil, &ValidationError{Rejected: rejected}
	}

	started := o.now()
	batch := &contracts.BatchResult{
		BatchID:     uuid.NewString(),
		StartedAt:   started.UTC(),
		ProfileHash: o.cfg.ProfileHash,
		Rejected:    rejected,
	}

	blog := o.logger.WithBatch(batch.BatchID)
	log := blog.WithFields(map[string]interface{}{
		"tickers":  len(valid),
		"rejected": len(rejected),
	})
	log.Info("Screening batch started")

	run := &batchRun{o: o, log: blog, bench: &benchmarkSeries{}, notify: fn}
	outcomes := make([]*contracts.Outcome, len(valid))

	if o.cfg.Concurrency <= 1 {
		for i, t := range valid {
			if ctx.Err() != nil {
				break
			}
			outcomes[i] = run.screen(context.WithoutCancel(ctx), t)
		}
	} else {
		o.screenParallel(ctx, run, valid, outcomes)
	}

	for _, out := range outcomes {
		if out != nil {
			batch.Outcomes = append(batch.Outcomes, *out)
		}
	}
	batch.Duration = o.now().Sub(started)
	o.metrics.Batch(batch.Duration)

	counts := batch.Counts()
	log.WithFields(map[string]interface{}{
		"pass":       counts[contracts.StatusPass],
		"fail":       counts[contracts.StatusFail],
		"incomplete": counts[contracts.StatusIncomplete],
		"screened":   len(batch.Outcomes),
		"duration":   batch.Duration.String(),
	}).Info("Screening batch finished")

	if err := ctx.Err(); err != nil {
		return batch, fmt.Errorf("batch %s stopped after %d of %d tickers: %w",
			batch.BatchID, len(batch.Outcomes), len(valid), err)
	}
	return batch, nil
}

// screenParallel runs a bounded worker pool; dispatch stops when ctx is done
func (o *Orchestrator) screenParallel(ctx context.Context, run *batchRun, tickers []string, outcomes []*contracts.Outcome) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := o.cfg.Concurrency
	if workers > len(tickers) {
		workers = len(tickers)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = run.screen(context.WithoutCancel(ctx), tickers[i])
			}
		}()
	}

dispatch:
	for i := range tickers {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

// Lookup returns the fresh cached outcome for ticker without fetching, or nil on a miss
func (o *Orchestrator) Lookup(ctx context.Context, ticker string) (*contracts.Outcome, error) {
	if o.cache == nil {
		return nil, nil
	}
	r, err := o.cache.Get(ctx, ticker, o.cfg.FreshnessWindow)
	if err != nil || r == nil {
		return nil, err
	}
	out := o.outcome(r, true)
	return &out, nil
}

func (o *Orchestrator) outcome(r *contracts.ScreeningResult, fromCache bool) contracts.Outcome {
	c := canslim.Classify(r, o.cfg.Thresholds)
	return contracts.Outcome{
		Ticker:         r.Ticker,
		Status:         c.Status,
		Result:         r,
		FromCache:      fromCache,
		FailedCriteria: c.Failed,
		Missing:        c.Missing,
		Errors:         r.FetchErrors,
	}
}
