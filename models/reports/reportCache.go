package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tradedesk/portal_backend/config"
)

const (
	cacheLockTTL  = 30 * time.Second
	cacheLockWait = 100 * time.Millisecond

	// cacheKeyBucket is the resolution of a range that ends "now" in cache keys.
	cacheKeyBucket = time.Minute
)

// Cache stores rendered report bodies. Lock serializes computation of one key
// across processes; the returned release func must always be called.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RedisCache keeps report bodies in redis and locks with redislock.
type RedisCache struct {
	rdb    *redis.Client
	locker *redislock.Client
}

func NewRedisCache(rdb *redis.Client, locker *redislock.Client) *RedisCache {
	return &RedisCache{rdb: rdb, locker: locker}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, body, ttl).Err()
}

func (c *RedisCache) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if c.locker == nil {
		return func() {}, nil
	}
	retries := int(ttl / cacheLockWait)
	lock, err := c.locker.Obtain(ctx, "lock:"+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(cacheLockWait), retries),
	})
	if err != nil {
		return func() {}, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.settings.CacheEnabled
}

// cacheKey covers everything that changes the rendered body: type, format, the
// caller's role and the resolved scope and range. Soft denial depends on role,
// so role is part of the key. A range that ends at the invocation instant moves
// with the clock, so its bounds are bucketed to the minute.
func cacheKey(p *plan) string {
	from, to := p.rng.From, p.rng.To
	if p.openEnded {
		from, to = from.Truncate(cacheKeyBucket), to.Truncate(cacheKeyBucket)
	}
	return strings.Join([]string{
		"report",
		string(p.reportType),
		string(p.format),
		string(p.caller.Role),
		p.caller.Id,
		p.scope.Key(),
		from.UTC().Format(time.RFC3339Nano),
		to.UTC().Format(time.RFC3339Nano),
	}, ":")
}

// cached serves key from the cache or computes it under a lock. Cache and lock
// failures are logged and the report is computed anyway.
func (s *Service) cached(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok := s.cacheGet(ctx, key); ok {
		return body, nil
	}

	release, err := s.cache.Lock(ctx, key, cacheLockTTL)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"field": "reportCache",
			"key":   key,
		}).Warn("could not obtain report lock; computing without lock: " + err.Error())
	}
	defer release()

	if body, ok := s.cacheGet(ctx, key); ok {
		return body, nil
	}

	body, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, body, s.settings.CacheTTL); err != nil {
		config.LogError(s.logger, "reports", "cached", "cache set", key, err)
	}
	return body, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		config.LogError(s.logger, "reports", "cached", "cache get", key, err)
		return nil, false
	}
	return body, ok
}
