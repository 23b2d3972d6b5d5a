package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// DefaultRunGuardPrefix namespaces scheduled-run claims in Redis
const DefaultRunGuardPrefix = "muhasebe:run:"

// RedisRunGuard claims scheduled runs with a Redis lock so that only one
// service instance submits a given run. A claim is never released; it
// expires with its TTL.
type RedisRunGuard struct {
	locker    *redislock.Client
	keyPrefix string
}

// NewRedisRunGuard creates a run guard on an existing client
func NewRedisRunGuard(client redis.UniversalClient, keyPrefix string) *RedisRunGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultRunGuardPrefix
	}
	return &RedisRunGuard{
		locker:    redislock.New(client),
		keyPrefix: keyPrefix,
	}
}

// Claim reports whether this instance obtained the run identified by key.
// false with a nil error means another instance holds it.
func (g *RedisRunGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	_, err := g.locker.Obtain(ctx, g.keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim run %s: %w", key, err)
	}
	return true, nil
}
