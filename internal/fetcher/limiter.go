package fetcher

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/retry"
)

// Limiter gates remote calls; *rate.Limiter and the Redis gate both satisfy it
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewIntervalLimiter admits one call per interval with no burst
// A non-positive interval disables limiting
func NewIntervalLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Chain waits on every limiter in order
type Chain []Limiter

func (c Chain) Wait(ctx context.Context) error {
	for _, l := range c {
		if l == nil {
			continue
		}
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

type gatedPrices struct {
	next    contracts.PriceProvider
	limiter Limiter
}

// GatedPrices makes every DailyCloses call wait on l first
func GatedPrices(p contracts.PriceProvider, l Limiter) contracts.PriceProvider {
	if l == nil {
		return p
	}
	return &gatedPrices{next: p, limiter: l}
}

func (g *gatedPrices) DailyCloses(ctx context.Context, ticker string, start, end time.Time) ([]contracts.PricePoint, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(err)
	}
	return g.next.DailyCloses(ctx, ticker, start, end)
}
