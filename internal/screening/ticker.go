package screening

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/canslim/internal/canslim"
	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/logger"
)

// benchmarkSeries fetches the benchmark at most once per batch, on the first cache miss
type benchmarkSeries struct {
	once   sync.Once
	points []contracts.PricePoint
	err    error
}

func (b *benchmarkSeries) get(ctx context.Context, o *Orchestrator) ([]contracts.PricePoint, error) {
	b.once.Do(func() {
		b.points, b.err = o.source.FetchBenchmarkHistory(ctx, o.cfg.Benchmark, o.cfg.HistoryWindow)
	})
	return b.points, b.err
}

type batchRun struct {
	o      *Orchestrator
	bench  *benchmarkSeries
	log    *logger.Logger
	notify func(contracts.Outcome)
	hook   sync.Mutex
}

// screen walks one ticker through CHECK_CACHE, FETCH, COMPUTE, PERSIST
func (r *batchRun) screen(ctx context.Context, ticker string) *contracts.Outcome {
	o := r.o
	start := time.Now()
	log := r.log.WithTicker(ticker)

	var out contracts.Outcome
	if cached := r.checkCache(ctx, ticker); cached != nil {
		out = o.outcome(cached, true)
	} else {
		result := r.fetchAndCompute(ctx, ticker)
		if o.cache != nil {
			if err := o.cache.Put(ctx, ticker, result); err != nil {
				log.WithError(err).Warn("Cache write failed, continuing without cache")
			}
		}
		out = o.outcome(result, false)
	}

	o.metrics.Outcome(string(out.Status), out.FromCache, time.Since(start))
	log.WithFields(map[string]interface{}{
		"status":     string(out.Status),
		"from_cache": out.FromCache,
		"failed":     out.FailedCriteria,
		"missing":    out.Missing,
	}).Debug("Ticker screened")

	if o.onOutcome != nil || r.notify != nil {
		r.hook.Lock()
		if o.onOutcome != nil {
			o.onOutcome(out)
		}
		if r.notify != nil {
			r.notify(out)
		}
		r.hook.Unlock()
	}
	return &out
}

func (r *batchRun) checkCache(ctx context.Context, ticker string) *contracts.ScreeningResult {
	o := r.o
	if o.cache == nil {
		return nil
	}
	cached, err := o.cache.Get(ctx, ticker, o.cfg.FreshnessWindow)
	if err != nil {
		r.log.WithTicker(ticker).WithError(err).Warn("Cache read failed, fetching")
		return nil
	}
	return cached
}

// fetchAndCompute never fails: unavailable inputs become missing metrics
func (r *batchRun) fetchAndCompute(ctx context.Context, ticker string) *contracts.ScreeningResult {
	o := r.o
	in := canslim.Inputs{Ticker: ticker}
	var fetchErrors []string

	points, err := o.source.FetchPriceHistory(ctx, ticker, o.cfg.HistoryWindow)
	if err != nil {
		fetchErrors = append(fetchErrors, err.Error())
	} else {
		in.Prices = points
	}

	// the ticker's own series is useless for RS without a benchmark and vice versa
	if in.Prices != nil {
		bench, err := r.bench.get(ctx, o)
		if err != nil {
			fetchErrors = append(fetchErrors, err.Error())
		} else {
			in.Benchmark = bench
		}
	}

	pair, err := o.source.FetchQuarterlyFinancials(ctx, ticker)
	if err != nil {
		fetchErrors = append(fetchErrors, err.Error())
	} else {
		in.Earnings = pair
	}

	meta, err := o.source.FetchCompanyMetadata(ctx, ticker)
	if err != nil {
		fetchErrors = append(fetchErrors, err.Error())
	} else {
		in.Metadata = meta
	}

	result := canslim.Compute(in, o.cfg.Params)
	result.FetchErrors = fetchErrors
	return result
}
