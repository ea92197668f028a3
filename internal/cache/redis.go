package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when Redis is disabled. Callers treat a nil client as "no cache, no lock".
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED is set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	log = log.Named("redis")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis %s: %w", addr, err)
			}
			log.Info("redis connected", zap.String("addr", addr), zap.Int("db", cfg.Redis.DB))
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
