package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/golang/snappy"
	"github.com/gosimple/slug"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix      = "osb:view:"
	purgeBatchSize = 500
	opTimeout      = 500 * time.Millisecond
)

// ViewCache keeps composed views in Redis as snappy-compressed JSON.
type ViewCache struct {
	client *redis.Client
	tuning *config.TuningHolder
	log    *zap.Logger
}

// NewViewCache returns a no-op cache when client is nil.
func NewViewCache(client *redis.Client, tuning *config.TuningHolder, log *zap.Logger) domain.ViewCache {
	if client == nil {
		return domain.NoopViewCache{}
	}
	if tuning == nil {
		tuning = config.NewStaticTuningHolder(config.DefaultTuning())
	}
	return &ViewCache{
		client: client,
		tuning: tuning,
		log:    log.Named("cache.view"),
	}
}

func (c *ViewCache) Get(ctx context.Context, kind, id string, dest any) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, Key(kind, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("view cache read failed", zap.String("kind", kind), zap.Error(err))
		}
		return false
	}

	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		c.log.Warn("view cache payload corrupt", zap.String("kind", kind), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(decoded, dest); err != nil {
		c.log.Warn("view cache payload corrupt", zap.String("kind", kind), zap.Error(err))
		return false
	}
	return true
}

func (c *ViewCache) Set(ctx context.Context, kind, id string, value any) {
	ttl := c.ttl(kind)
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("view cache encode failed", zap.String("kind", kind), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, Key(kind, id), snappy.Encode(nil, payload), ttl).Err(); err != nil {
		c.log.Warn("view cache write failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (c *ViewCache) Invalidate(ctx context.Context, kind string, ids ...string) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, Key(kind, id))
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("view cache invalidation failed", zap.String("kind", kind), zap.Error(err))
	}
}

// Purge drops every cached view.
func (c *ViewCache) Purge(ctx context.Context) error {
	var cursor uint64
	var removed int64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", purgeBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return err
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.log.Info("view cache purged", zap.Int64("keys", removed))
	return nil
}

func (c *ViewCache) ttl(kind string) time.Duration {
	tuning := c.tuning.Get().Cache
	if kind == domain.CacheKindSearch {
		return time.Duration(tuning.SearchTTLSeconds) * time.Second
	}
	return time.Duration(tuning.ViewTTLSeconds) * time.Second
}

// Key builds the Redis key of a cached view. Search ids are free text and get slugified.
func Key(kind, id string) string {
	id = strings.TrimSpace(id)
	if kind == domain.CacheKindSearch {
		id = slug.Make(id)
	}
	return keyPrefix + kind + ":" + id
}
