// Package fetcher wraps market-data and filings providers with the retry policy,
// the rate limiter and the DataUnavailable error contract.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/retry"
)

// Fetcher retrieves screening inputs from providers
// ⭐ SSOT: 외부 데이터 호출은 모두 이 Fetcher를 거침 (재시도 + 레이트리밋)
type Fetcher struct {
	prices       contracts.PriceProvider
	fundamentals contracts.FundamentalsProvider
	policy       retry.Policy
	limiter      Limiter
	now          func() time.Time
	logger       *logger.Logger
	metrics      *telemetry.Metrics
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithPolicy overrides the default retry policy
func WithPolicy(p retry.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithLimiter sets the rate limiter consulted before every attempt
func WithLimiter(l Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithClock sets the clock used to compute history windows
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithMetrics records attempt outcomes
func WithMetrics(m *telemetry.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// New creates a Fetcher; either provider may be nil, in which case its operations
// report DataUnavailable
func New(prices contracts.PriceProvider, fundamentals contracts.FundamentalsProvider, log *logger.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = logger.Nop()
	}
	f := &Fetcher{
		prices:       prices,
		fundamentals: fundamentals,
		policy:       retry.DefaultPolicy(),
		limiter:      NewIntervalLimiter(0),
		now:          time.Now,
		logger:       log.WithComponent("fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchPriceHistory returns daily closes covering the trailing window, oldest first
func (f *Fetcher) FetchPriceHistory(ctx context.Context, ticker string, window time.Duration) ([]contracts.PricePoint, error) {
	return f.history(ctx, OpPriceHistory, ticker, window)
}

// FetchBenchmarkHistory is FetchPriceHistory for the benchmark symbol
func (f *Fetcher) FetchBenchmarkHistory(ctx context.Context, benchmark string, window time.Duration) ([]contracts.PricePoint, error) {
	return f.history(ctx, OpBenchmarkHistory, benchmark, window)
}

func (f *Fetcher) history(ctx context.Context, op Op, ticker string, window time.Duration) ([]contracts.PricePoint, error) {
	if f.prices == nil {
		return nil, f.unavailable(ticker, op, 0, true, ErrNoProvider)
	}
	end := f.now().UTC()
	start := end.Add(-window)
	return call(ctx, f, op, ticker, func(ctx context.Context) ([]contracts.PricePoint, error) {
		return f.prices.DailyCloses(ctx, ticker, start, end)
	})
}

// FetchQuarterlyFinancials returns the latest quarterly EPS and the year-ago quarter
func (f *Fetcher) FetchQuarterlyFinancials(ctx context.Context, ticker string) (contracts.EarningsPair, error) {
	if f.fundamentals == nil {
		return contracts.EarningsPair{}, f.unavailable(ticker, OpFinancials, 0, true, ErrNoProvider)
	}
	return call(ctx, f, OpFinancials, ticker, func(ctx context.Context) (contracts.EarningsPair, error) {
		return f.fundamentals.QuarterlyEPS(ctx, ticker)
	})
}

// FetchCompanyMetadata returns name, sector and industry
func (f *Fetcher) FetchCompanyMetadata(ctx context.Context, ticker string) (*contracts.CompanyMetadata, error) {
	if f.fundamentals == nil {
		return nil, f.unavailable(ticker, OpMetadata, 0, true, ErrNoProvider)
	}
	return call(ctx, f, OpMetadata, ticker, func(ctx context.Context) (*contracts.CompanyMetadata, error) {
		return f.fundamentals.CompanyProfile(ctx, ticker)
	})
}

// call runs fn under the retry policy, waiting on the limiter before each attempt
func call[T any](ctx context.Context, f *Fetcher, op Op, ticker string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := 0

	policy := f.policy
	userHook := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		f.metrics.FetchAttempt(string(op), telemetry.FetchRetry)
		f.logger.WithFields(map[string]interface{}{
			"ticker":  ticker,
			"op":      string(op),
			"attempt": attempt,
			"delay":   delay.String(),
		}).WithError(err).Warn("Transient fetch failure, backing off")
		if userHook != nil {
			userHook(attempt, delay, err)
		}
	}

	v, err := retry.Value(ctx, policy, func(ctx context.Context) (T, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return zero, retry.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		attempts++
		return fn(ctx)
	})
	if err == nil {
		f.metrics.FetchAttempt(string(op), telemetry.FetchSuccess)
		return v, nil
	}

	cause, permanent := err, retry.IsPermanent(err)
	var rerr *retry.Error
	if errors.As(err, &rerr) {
		cause, permanent = rerr.Err, rerr.Permanent
	}
	return zero, f.unavailable(ticker, op, attempts, permanent, cause)
}

func (f *Fetcher) unavailable(ticker string, op Op, attempts int, permanent bool, cause error) error {
	f.metrics.FetchAttempt(string(op), telemetry.FetchUnavailable)
	f.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"op":        string(op),
		"attempts":  attempts,
		"permanent": permanent,
	}).WithError(cause).Warn("Data unavailable")

	return &DataUnavailableError{
		Ticker:    strings.ToUpper(ticker),
		Op:        op,
		Attempts:  attempts,
		Permanent: permanent,
		Err:       cause,
	}
}
