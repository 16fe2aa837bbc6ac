package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"map-editor/config"
	"map-editor/logger"
	"map-editor/metrics"
	"map-editor/models"
)

const (
	cacheKeyAreas     = "map:areas"
	cacheKeyLandmarks = "map:landmarks"
)

// OpenRedis connects to the configured cluster, or to the single instance when no cluster is
// set. It returns nil when redis is not configured.
func OpenRedis(cfg config.RedisConfig) redis.UniversalClient {
	if len(cfg.ClusterAddrs) > 0 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    cfg.ClusterAddrs,
			Password: cfg.Password,
		})
	}
	if cfg.Address != "" {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
		})
	}
	return nil
}

// MetadataCache keeps the serialized area and landmark collections in redis for a fixed TTL.
// It is owned by whoever constructs it and must be closed by them. A cache without a client
// misses on every read and ignores writes.
type MetadataCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewMetadataCache wraps client. prefix namespaces every key; ttl bounds staleness when another
// process writes to the database.
func NewMetadataCache(client redis.UniversalClient, ttl time.Duration, prefix string) *MetadataCache {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &MetadataCache{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.L(),
	}
}

func (c *MetadataCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *MetadataCache) key(name string) string {
	return c.prefix + name
}

func (c *MetadataCache) GetAreas(ctx context.Context) ([]models.AreaRecord, bool) {
	var areas []models.AreaRecord
	return areas, c.get(ctx, cacheKeyAreas, "areas", &areas)
}

func (c *MetadataCache) SetAreas(ctx context.Context, areas []models.AreaRecord) {
	c.set(ctx, cacheKeyAreas, areas)
}

func (c *MetadataCache) GetLandmarks(ctx context.Context) ([]models.LandmarkRecord, bool) {
	var landmarks []models.LandmarkRecord
	return landmarks, c.get(ctx, cacheKeyLandmarks, "landmarks", &landmarks)
}

func (c *MetadataCache) SetLandmarks(ctx context.Context, landmarks []models.LandmarkRecord) {
	c.set(ctx, cacheKeyLandmarks, landmarks)
}

// Invalidate drops both collections. Called after every write.
func (c *MetadataCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	// one DEL per key so cluster mode never sees a cross-slot command
	for _, name := range []string{cacheKeyAreas, cacheKeyLandmarks} {
		if err := c.client.Del(ctx, c.key(name)).Err(); err != nil {
			c.logger.Warn("cache_invalidate_failed", "key", c.key(name), "err", err)
		}
	}
}

// Close releases the redis connection
func (c *MetadataCache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}

func (c *MetadataCache) get(ctx context.Context, name, collection string, out any) bool {
	if !c.enabled() {
		return false
	}
	value, err := c.client.Get(ctx, c.key(name)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache_get_failed", "key", c.key(name), "err", err)
		}
		metrics.CacheMissesTotal.WithLabelValues(collection).Inc()
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		c.logger.Warn("cache_decode_failed", "key", c.key(name), "err", err)
		metrics.CacheMissesTotal.WithLabelValues(collection).Inc()
		return false
	}
	metrics.CacheHitsTotal.WithLabelValues(collection).Inc()
	return true
}

func (c *MetadataCache) set(ctx context.Context, name string, value any) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache_encode_failed", "key", c.key(name), "err", err)
		return
	}
	if err := c.client.Set(ctx, c.key(name), string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("cache_set_failed", "key", c.key(name), "err", err)
	}
}
