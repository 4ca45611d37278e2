package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/model"
)

const keyPrefix = "sichef:geocode:"

// Cache stores matched lookups by query.
type Cache interface {
	Get(ctx context.Context, query string) (*model.GeocodeResult, error)
	Set(ctx context.Context, query string, res model.GeocodeResult) error
}

// CacheKey returns the redis key for a query: a SHA-256 of the trimmed,
// lowercased query.
func CacheKey(query string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%s%x", keyPrefix, h)
}

// RedisCache is a Cache backed by redis string keys holding JSON.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. A zero ttl stores keys without expiry.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns nil without error on a miss.
func (c *RedisCache) Get(ctx context.Context, query string) (*model.GeocodeResult, error) {
	raw, err := c.client.Get(ctx, CacheKey(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "geocode cache: get")
	}
	var res model.GeocodeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, eris.Wrap(err, "geocode cache: decode")
	}
	return &res, nil
}

// Set stores res under the query key.
func (c *RedisCache) Set(ctx context.Context, query string, res model.GeocodeResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "geocode cache: encode")
	}
	if err := c.client.Set(ctx, CacheKey(query), raw, c.ttl).Err(); err != nil {
		return eris.Wrap(err, "geocode cache: set")
	}
	return nil
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "geocode cache: ping %s", addr)
	}
	zap.L().Debug("geocode cache connected", zap.String("addr", addr))
	return client, nil
}
