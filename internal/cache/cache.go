// Package cache keeps the latest ScreeningResult per ticker and answers freshness-bounded
// lookups. Backends implement Store; ResultCache adds the clock, freshness rule and the
// read/write error contract.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/pkg/logger"
)

var (
	// ErrNotFound is returned by stores when no row exists for a ticker
	ErrNotFound = errors.New("result not found")
	// ErrCacheRead wraps every failed lookup
	ErrCacheRead = errors.New("cache read failed")
	// ErrCacheWrite wraps every failed upsert
	ErrCacheWrite = errors.New("cache write failed")
)

// Store persists one result row per ticker (upsert, last writer wins)
type Store interface {
	Load(ctx context.Context, ticker string) (*contracts.ScreeningResult, error)
	Save(ctx context.Context, result *contracts.ScreeningResult) error
	Close() error
}

// Stats describes the stored rows
type Stats struct {
	Backend string    `json:"backend"`
	Rows    int       `json:"rows"`
	Oldest  time.Time `json:"oldest,omitempty"`
	Newest  time.Time `json:"newest,omitempty"`
}

// StatsProvider is implemented by stores that can count their rows
type StatsProvider interface {
	Stats(ctx context.Context) (Stats, error)
}

// ResultCache is the freshness-aware result cache
// ⭐ SSOT: 결과 캐시 조회/저장은 여기서만
type ResultCache struct {
	store   Store
	now     func() time.Time
	logger  *logger.Logger
	metrics *telemetry.Metrics
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithClock sets the clock used for freshness checks and cached_at stamps
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

// WithMetrics records lookups and writes
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *ResultCache) { c.metrics = m }
}

// New wraps a store
func New(store Store, log *logger.Logger, opts ...Option) *ResultCache {
	if log == nil {
		log = logger.Nop()
	}
	c := &ResultCache{
		store:  store,
		now:    time.Now,
		logger: log.WithComponent("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the stored result only if now - cached_at <= maxAge; stale rows are a miss
func (c *ResultCache) Get(ctx context.Context, ticker string, maxAge time.Duration) (*contracts.ScreeningResult, error) {
	key := normalize(ticker)

	r, err := c.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		c.metrics.CacheLookup(telemetry.CacheMiss)
		return nil, nil
	}
	if err != nil {
		c.metrics.CacheLookup(telemetry.CacheError)
		return nil, fmt.Errorf("%w: %s: %w", ErrCacheRead, key, err)
	}

	now := c.stamp()
	if !r.IsFresh(now, maxAge) {
		c.metrics.CacheLookup(telemetry.CacheMiss)
		c.logger.WithFields(map[string]interface{}{
			"ticker": key,
			"age":    r.Age(now).Round(time.Second).String(),
		}).Debug("Cached result is stale")
		return nil, nil
	}

	c.metrics.CacheLookup(telemetry.CacheHit)
	return r, nil
}

// Put upserts result under ticker and stamps cached_at = now on both the stored copy and result
func (c *ResultCache) Put(ctx context.Context, ticker string, result *contracts.ScreeningResult) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", ErrCacheWrite)
	}
	key := normalize(ticker)

	row := result.Clone()
	row.Ticker = key
	row.CachedAt = c.stamp()

	err := c.store.Save(ctx, row)
	c.metrics.CacheWrite(err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCacheWrite, key, err)
	}

	result.CachedAt = row.CachedAt
	return nil
}

// stamp is the clock at the precision every store keeps (postgres timestamptz is microseconds)
func (c *ResultCache) stamp() time.Time {
	return c.now().UTC().Truncate(time.Microsecond)
}

// Stats reports row counts when the store supports it
func (c *ResultCache) Stats(ctx context.Context) (Stats, error) {
	sp, ok := c.store.(StatsProvider)
	if !ok {
		return Stats{}, fmt.Errorf("stats not supported by %T", c.store)
	}
	st, err := sp.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: stats: %w", ErrCacheRead, err)
	}
	return st, nil
}

// Close releases the store
func (c *ResultCache) Close() error {
	return c.store.Close()
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
