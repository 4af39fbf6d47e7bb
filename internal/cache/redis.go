package cache

import (
	"context"
	"strings"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/redis"
)

// RedisStore keeps results as JSON values without TTL so stale rows persist like the SQL stores
type RedisStore struct {
	client *redis.Client
	cache  *redis.Cache
}

// NewRedisStore takes ownership of client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, cache: redis.NewCache(client, prefix)}
}

func (s *RedisStore) Load(ctx context.Context, ticker string) (*contracts.ScreeningResult, error) {
	var r contracts.ScreeningResult
	found, err := s.cache.Get(ctx, redis.ResultKey(ticker), &r)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	r.CachedAt = r.CachedAt.UTC()
	return &r, nil
}

func (s *RedisStore) Save(ctx context.Context, r *contracts.ScreeningResult) error {
	return s.cache.Set(ctx, redis.ResultKey(r.Ticker), r, redis.TTLNone)
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "redis"}
	keys, err := s.cache.Keys(ctx, redis.ResultKey(""))
	if err != nil {
		return st, err
	}
	for _, key := range keys {
		r, err := s.Load(ctx, strings.TrimPrefix(key, redis.ResultKey("")))
		if err != nil {
			continue
		}
		st.Rows++
		if st.Oldest.IsZero() || r.CachedAt.Before(st.Oldest) {
			st.Oldest = r.CachedAt
		}
		if r.CachedAt.After(st.Newest) {
			st.Newest = r.CachedAt
		}
	}
	return st, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
