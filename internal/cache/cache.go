package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client is a read-through cache that never fails its caller. A nil *Client
// and an unreachable server both behave as an always-empty cache; redis
// errors are logged at debug level and reported as misses.
type Client struct {
	rdb *redis.Client
	log *zap.Logger
}

// New connects lazily to the redis server at addr.
func New(addr, password string, db int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		log: log.Named("cache"),
	}
}

func (c *Client) available() bool {
	return c != nil && c.rdb != nil
}

// Ping reports whether the server answers. Callers may log the error and keep
// running.
func (c *Client) Ping(ctx context.Context) error {
	if !c.available() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Get returns the raw value stored under key and whether it was found.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.available() {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		c.log.Debug("get degraded to miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Set stores value under key for ttl.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.available() {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("set skipped", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes keys in a single round trip.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if !c.available() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Debug("delete skipped", zap.Strings("keys", keys), zap.Error(err))
	}
}

// GetJSON decodes the value under key into dst. An entry that does not decode
// is evicted and treated as a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Debug("evicting undecodable entry", zap.String("key", key), zap.Error(err))
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key for ttl.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.available() {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Debug("encode skipped", zap.String("key", key), zap.Error(err))
		return
	}
	c.Set(ctx, key, data, ttl)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.available() {
		return nil
	}
	return c.rdb.Close()
}
