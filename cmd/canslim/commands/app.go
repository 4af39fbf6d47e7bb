package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/canslim/internal/cache"
	"github.com/wonny/canslim/internal/external/alpaca"
	"github.com/wonny/canslim/internal/external/sec"
	"github.com/wonny/canslim/internal/fetcher"
	"github.com/wonny/canslim/internal/profile"
	"github.com/wonny/canslim/internal/screening"
	"github.com/wonny/canslim/internal/telemetry"
	"github.com/wonny/canslim/internal/universe"
	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/httputil"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/redis"
	"github.com/wonny/canslim/pkg/retry"
)

// app holds the wired components shared by commands
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	metrics     *telemetry.Metrics
	redis       *redis.Client
	results     *cache.ResultCache
	sec         *sec.Client
	fetcher     *fetcher.Fetcher
	resolver    *universe.Resolver
	screener    *screening.Orchestrator
	profile     *profile.Profile
	profileHash string
}

// newApp loads config and wires providers, cache and orchestrator
// ⭐ SSOT: 컴포넌트 조립은 여기서만
func newApp(ctx context.Context, opts ...screening.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if profilePath != "" {
		cfg.Screening.ProfilePath = profilePath
	}
	if screenConcurrency > 0 {
		cfg.Screening.Concurrency = screenConcurrency
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}
	if cfg.MetricsEnabled {
		a.metrics = telemetry.New()
	}
	if missing := cfg.MissingKeys(); len(missing) > 0 {
		a.log.WithField("missing", missing).Warn("Provider credentials missing, affected metrics will be INCOMPLETE")
	}

	if err := a.loadProfile(); err != nil {
		return nil, err
	}

	a.redis, err = redis.New(cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, continuing without it")
		a.redis = nil
	}

	store, err := cache.OpenStore(ctx, cfg, a.log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open result cache: %w", err)
	}
	a.results = cache.New(store, a.log, cache.WithMetrics(a.metrics))

	a.wireProviders()

	var extra []universe.Definition
	if a.profile != nil {
		extra = a.profile.Universes
	}
	a.resolver, err = universe.NewResolver(httputil.New(cfg, a.log), a.log, cfg.Screening.ScreenLimit, extra...)
	if err != nil {
		a.Close()
		return nil, err
	}

	scfg := screening.ConfigFrom(cfg)
	if a.profile != nil {
		scfg = a.profile.Apply(scfg, a.profileHash)
	}
	opts = append([]screening.Option{
		screening.WithCache(a.results),
		screening.WithMetrics(a.metrics),
	}, opts...)
	a.screener = screening.New(scfg, a.fetcher, a.log, opts...)
	return a, nil
}

func (a *app) loadProfile() error {
	path := a.cfg.Screening.ProfilePath
	if path == "" {
		return nil
	}
	p, _, err := profile.Load(path)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", path, err)
	}
	hash, err := profile.Hash(p)
	if err != nil {
		return err
	}
	for _, w := range profile.Warn(p) {
		a.log.WithFields(map[string]interface{}{"code": w.Code}).Warn(w.Message)
	}
	a.profile, a.profileHash = p, hash
	a.log.WithFields(map[string]interface{}{
		"profile": p.Meta.ProfileID,
		"hash":    hash[:12],
	}).Info("Screening profile loaded")
	return nil
}

// wireProviders builds the Alpaca and SEC clients behind the fetcher
func (a *app) wireProviders() {
	cfg := a.cfg

	secHTTP := httputil.New(cfg, a.log)
	var priceGate fetcher.Limiter
	if cfg.Fetch.RateLimiter == "redis" && a.redis != nil && a.redis.Enabled() {
		limiter := redis.NewRateLimiter(a.redis, cfg.Cache.KeyPrefix)
		secHTTP.WithRateLimiter(limiter.For(redis.SECRateLimit))
		priceGate = limiter.For(redis.AlpacaRateLimit)
	}

	a.sec = sec.NewClient(cfg.SEC, secHTTP, a.log)
	if a.redis != nil && a.redis.Enabled() {
		a.sec.WithCache(redis.NewCache(a.redis, cfg.Cache.KeyPrefix))
	}

	prices := fetcher.GatedPrices(alpaca.NewClient(cfg.Alpaca, a.log), priceGate)

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Fetch.MaxAttempts
	if len(cfg.Fetch.Backoff) > 0 {
		policy.Backoff = cfg.Fetch.Backoff
	}

	a.fetcher = fetcher.New(prices, a.sec, a.log,
		fetcher.WithPolicy(policy),
		fetcher.WithLimiter(fetcher.NewIntervalLimiter(cfg.Fetch.CourtesyDelay)),
		fetcher.WithMetrics(a.metrics),
	)
}

// Close releases the cache and redis connections
func (a *app) Close() {
	if a.results != nil {
		if err := a.results.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close result cache")
		}
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// resolveTickers returns explicit args or the named universe
func (a *app) resolveTickers(ctx context.Context, args []string, universeName string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if universeName == "" {
		return nil, errors.New("no tickers given: pass tickers or --universe")
	}
	return a.resolver.Resolve(ctx, universeName)
}
