package busy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/abdhe/inspirai/pkg/logger"
)

const keyPrefix = "inspirai:busy:"

// releaseScript deletes the lease only if it still carries our token, so a
// holder whose lease expired cannot release someone else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard is a Guard shared by every replica that talks to the same Redis.
// Leases expire after ttl so a crashed holder cannot lock a client out.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard creates a Redis-backed guard.
func NewRedisGuard(addr, password string, db int, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisGuard{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Acquire takes key with SET NX or returns ErrBusy.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("busy: acquire: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}

	return func() {
		// The request context may already be done; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, g.client, []string{redisKey}, token).Err(); err != nil {
			logger.FromContext(ctx).Warn("busy lease release failed", "component", "busy", "error", err)
		}
	}, nil
}

// Ping checks the Redis connection.
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
