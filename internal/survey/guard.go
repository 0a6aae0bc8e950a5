package survey

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const submitKeyPrefix = "survey:submit:"

// ErrLocked is returned when another submission holds the key.
var ErrLocked = errors.New("submission already running")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// SubmitGuard allows one in-flight submission per key across replicas.
type SubmitGuard struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSubmitGuard(rdb *redis.Client, ttl time.Duration) *SubmitGuard {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SubmitGuard{redis: rdb, ttl: ttl}
}

// SubmitKey is the Redis key guarding key.
func SubmitKey(key string) string {
	return submitKeyPrefix + key
}

// Acquire takes the lock for key. The returned func releases it.
func (g *SubmitGuard) Acquire(ctx context.Context, key, token string) (func(), error) {
	ok, err := g.redis.SetNX(ctx, SubmitKey(key), token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// the caller's context may already be cancelled
		_ = releaseScript.Run(context.Background(), g.redis, []string{SubmitKey(key)}, token).Err()
	}, nil
}
