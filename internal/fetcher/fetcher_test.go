package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/retry"
)

type scriptedPrices struct {
	errs       []error
	calls      int
	start, end time.Time
}

func (s *scriptedPrices) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	s.calls++
	s.start, s.end = start, end
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return []contracts.PricePoint{{Date: end, Close: 190}}, nil
}

type scriptedFundamentals struct {
	epsErr  error
	meta    *contracts.CompanyMetadata
	epsCall int
}

func (s *scriptedFundamentals) QuarterlyEPS(ctx context.Context, ticker string) (contracts.EarningsPair, error) {
	s.epsCall++
	if s.epsErr != nil {
		return contracts.EarningsPair{}, s.epsErr
	}
	return contracts.EarningsPair{
		Current: &contracts.QuarterlyEPS{Value: 1.25},
		YearAgo: &contracts.QuarterlyEPS{Value: 1.00},
	}, nil
}

func (s *scriptedFundamentals) CompanyProfile(ctx context.Context, ticker string) (*contracts.CompanyMetadata, error) {
	return s.meta, nil
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

func testPolicy(delays *[]time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return p
}

var fixedNow = time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC)

func TestFetchPriceHistory_RetriesTransientThenSucceeds(t *testing.T) {
	var delays []time.Duration
	prices := &scriptedPrices{errs: []error{
		retry.Transient(errors.New("429 too many requests")),
		retry.Transient(errors.New("i/o timeout")),
	}}
	lim := &countingLimiter{}
	f := New(prices, nil, logger.Nop(),
		WithPolicy(testPolicy(&delays)),
		WithLimiter(lim),
		WithClock(func() time.Time { return fixedNow }),
		WithMetrics(telemetry.New()),
	)

	points, err := f.FetchPriceHistory(context.Background(), "AAPL", 400*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 3, prices.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
	assert.Equal(t, 3, lim.waits, "limiter gates every attempt")
	assert.Equal(t, fixedNow, prices.end)
	assert.Equal(t, fixedNow.Add(-400*24*time.Hour), prices.start)
}

func TestFetchPriceHistory_ExhaustsIntoDataUnavailable(t *testing.T) {
	var delays []time.Duration
	cause := errors.New("503 service unavailable")
	prices := &scriptedPrices{errs: []error{cause, cause, cause}}
	f := New(prices, nil, logger.Nop(), WithPolicy(testPolicy(&delays)))

	_, err := f.FetchPriceHistory(context.Background(), "aapl", time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, cause)

	var due *DataUnavailableError
	require.ErrorAs(t, err, &due)
	assert.Equal(t, "AAPL", due.Ticker)
	assert.Equal(t, OpPriceHistory, due.Op)
	assert.Equal(t, 3, due.Attempts)
	assert.False(t, due.Permanent)
	assert.Len(t, delays, 2)
}

func TestFetchQuarterlyFinancials_PermanentFailsFast(t *testing.T) {
	var delays []time.Duration
	fund := &scriptedFundamentals{epsErr: retry.Permanent(errors.New("no year-ago quarter reported"))}
	f := New(nil, fund, logger.Nop(), WithPolicy(testPolicy(&delays)))

	_, err := f.FetchQuarterlyFinancials(context.Background(), "NEW")
	require.Error(t, err)
	assert.True(t, IsDataUnavailable(err))

	var due *DataUnavailableError
	require.ErrorAs(t, err, &due)
	assert.True(t, due.Permanent)
	assert.Equal(t, 1, due.Attempts)
	assert.Equal(t, 1, fund.epsCall)
	assert.Empty(t, delays)
}

func TestFetchQuarterlyFinancials_Success(t *testing.T) {
	f := New(nil, &scriptedFundamentals{}, logger.Nop())
	pair, err := f.FetchQuarterlyFinancials(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1.25, pair.Current.Value)
}

func TestFetchCompanyMetadata(t *testing.T) {
	meta := &contracts.CompanyMetadata{Name: "Apple Inc.", Sector: "Manufacturing"}
	f := New(nil, &scriptedFundamentals{meta: meta}, logger.Nop())

	got, err := f.FetchCompanyMetadata(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestMissingProvidersReportUnavailable(t *testing.T) {
	f := New(nil, nil, logger.Nop())
	ctx := context.Background()

	_, err := f.FetchBenchmarkHistory(ctx, "SPY", time.Hour)
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = f.FetchQuarterlyFinancials(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = f.FetchCompanyMetadata(ctx, "AAPL")
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestCancelledContextStopsAtLimiter(t *testing.T) {
	prices := &scriptedPrices{}
	f := New(prices, nil, logger.Nop(), WithLimiter(&countingLimiter{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchPriceHistory(ctx, "AAPL", time.Hour)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Zero(t, prices.calls)
}

func TestNewIntervalLimiter(t *testing.T) {
	lim := NewIntervalLimiter(0)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, lim.Wait(ctx))
	}

	lim = NewIntervalLimiter(50 * time.Millisecond)
	start := time.Now()
	require.NoError(t, lim.Wait(ctx))
	require.NoError(t, lim.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestChainAndGatedPrices(t *testing.T) {
	a, b := &countingLimiter{}, &countingLimiter{}
	chain := Chain{a, nil, b}
	require.NoError(t, chain.Wait(context.Background()))
	assert.Equal(t, 1, a.waits)
	assert.Equal(t, 1, b.waits)

	prices := &scriptedPrices{}
	gated := GatedPrices(prices, chain)
	_, err := gated.DailyCloses(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, a.waits)
	assert.Equal(t, 1, prices.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gated.DailyCloses(ctx, "AAPL", time.Now(), time.Now())
	assert.True(t, retry.IsPermanent(err))
	assert.Equal(t, 1, prices.calls)

	assert.Same(t, prices, GatedPrices(prices, nil))
}
