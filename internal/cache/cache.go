package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blogapp/internal/middleware"
	"blogapp/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	// UserKeyPrefix formats the key of a cached user.
	UserKeyPrefix = "user:%d"
	// UserTTL bounds how long a resolved user is served from Redis.
	UserTTL = 5 * time.Minute
)

// UserKey returns the cache key for userID.
func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Cache is a JSON cache over Redis guarded by a circuit breaker.
// A nil *Cache is valid and never hits; callers then always load from the source.
type Cache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings returns the circuit breaker configuration used for Redis.
// The breaker opens after five consecutive failures and probes again after 30 seconds.
func BreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			middleware.Logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
}

// New wraps client. A nil client yields a nil, always-missing Cache.
func New(client *redis.Client) *Cache {
	return NewWithSettings(client, BreakerSettings())
}

// NewWithSettings is New with a custom breaker configuration.
func NewWithSettings(client *redis.Client, settings gobreaker.Settings) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Client returns the underlying Redis client, or nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// State reports the circuit breaker state.
func (c *Cache) State() gobreaker.State {
	if c == nil {
		return gobreaker.StateOpen
	}
	return c.breaker.State()
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	ctx, span := observability.StartRedis(ctx, "get")
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		observability.EndSpan(span, nil)
		return false, nil
	}
	observability.EndSpan(span, err)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, span := observability.StartRedis(ctx, "set")
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, b, ttl).Err()
	})
	observability.EndSpan(span, err)
	return err
}

// Invalidate removes key. Failures are logged and otherwise ignored.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Del(ctx, key).Err()
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Aside tries Redis first; on a miss it calls fetch, which must populate dest,
// then stores dest with ttl. Redis failures degrade to calling fetch.
// found=false from fetch means the source has no such record; nothing is cached then.
func (c *Cache) Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, fetch func() (bool, error)) (bool, error) {
	hit, err := c.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(name, "error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed, using source",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	case hit:
		observability.CacheLookups.WithLabelValues(name, "hit").Inc()
		return true, nil
	default:
		observability.CacheLookups.WithLabelValues(name, "miss").Inc()
	}

	found, err := fetch()
	if err != nil || !found {
		return found, err
	}

	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return true, nil
}
