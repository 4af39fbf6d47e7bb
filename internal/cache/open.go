package cache

import (
	"context"
	"fmt"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/database"
	"github.com/wonny/canslim/pkg/logger"
	"github.com/wonny/canslim/pkg/redis"
)

// OpenStore builds the backend selected by CACHE_BACKEND
func OpenStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	log.WithField("backend", cfg.Cache.Backend).Info("Opening result cache")

	switch cfg.Cache.Backend {
	case "memory":
		return NewMemoryStore(), nil

	case "sqlite":
		return OpenSQLite(cfg.Cache.SQLitePath)

	case "postgres":
		db, err := database.Open(ctx, cfg.Database.URL, cfg.Database)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	case "redis":
		client, err := redis.New(cfg)
		if err != nil {
			return nil, err
		}
		if !client.Enabled() {
			return nil, fmt.Errorf("redis cache backend requires REDIS_ENABLED=true")
		}
		return NewRedisStore(client, cfg.Cache.KeyPrefix), nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
