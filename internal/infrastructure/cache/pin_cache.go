package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"hitrank/internal/infrastructure/metrics"
	"hitrank/pkg/logger"
)

const (
	PinViewTTL = 2 * time.Minute
	// generationTTL only has to outlive a single read-through.
	generationTTL = 24 * time.Hour
)

// PinCache is a Redis cache-aside layer for pin views. A nil client turns
// every operation into a no-op, so the API runs without Redis.
type PinCache struct {
	rdb *redis.Client
}

// NewPinCache connects to redisURL. An empty URL or a failed ping disables
// caching instead of failing startup.
func NewPinCache(redisURL string) *PinCache {
	if redisURL == "" {
		logger.Info("redis: no URL configured, caching disabled")
		return &PinCache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("redis: invalid URL, caching disabled: %v", err)
		return &PinCache{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis: connection failed, caching disabled: %v", err)
		return &PinCache{}
	}

	logger.Info("redis: connected, caching enabled")
	return &PinCache{rdb: rdb}
}

// NewPinCacheWithClient wraps an existing client.
func NewPinCacheWithClient(rdb *redis.Client) *PinCache {
	return &PinCache{rdb: rdb}
}

// Client returns the underlying Redis client. May be nil.
func (c *PinCache) Client() *redis.Client {
	return c.rdb
}

// Get decodes the cached view for pinID into dst. It reports false on a miss
// or when caching is disabled. The returned generation is passed back to Set.
func (c *PinCache) Get(ctx context.Context, pinID string, dst interface{}) (bool, int64, error) {
	if c.rdb == nil {
		return false, 0, nil
	}
	vals, err := c.rdb.MGet(ctx, pinKey(pinID), generationKey(pinID)).Result()
	if err != nil {
		return false, 0, err
	}

	var generation int64
	if raw, ok := vals[1].(string); ok {
		if generation, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return false, 0, err
		}
	}

	data, ok := vals[0].(string)
	if !ok {
		metrics.Metrics.CacheMisses.Inc()
		return false, generation, nil
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return false, generation, err
	}
	metrics.Metrics.CacheHits.Inc()
	return true, generation, nil
}

// Set stores view only if the pin has not been invalidated since the Get that
// returned generation, so a reader cannot write back a view older than the
// last committed mutation.
func (c *PinCache) Set(ctx context.Context, pinID string, generation int64, view interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(view)
	if err != nil {
		return err
	}

	genKey := generationKey(pinID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pinKey(pinID), b, PinViewTTL)
			return nil
		})
		return err
	}, genKey)
	if err == redis.TxFailedErr {
		// Invalidated between the check and the write.
		return nil
	}
	return err
}

// Invalidate drops the cached view after a committed mutation of the pin and
// bumps its generation.
func (c *PinCache) Invalidate(ctx context.Context, pinID string) error {
	if c.rdb == nil {
		return nil
	}
	genKey := generationKey(pinID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, pinKey(pinID))
		return nil
	})
	return err
}

func pinKey(pinID string) string {
	return "pin:" + pinID
}

func generationKey(pinID string) string {
	return "pin:" + pinID + ":gen"
}
