package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store with a fixed window counter (INCR plus EXPIRE
// on first hit). Coarser than the in-memory sliding window but shared across
// replicas, which is what matters for the login endpoints.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	rkey := "ratelimit:" + key

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, rkey)
	ttl := pipe.PTTL(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit incr: %w", err)
	}

	// First hit in the window sets the expiry. PTTL reports -1 until then.
	if ttl.Val() < 0 {
		if err := s.client.PExpire(ctx, rkey, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl.SetVal(window)
	}

	n := int(count.Val())
	res := Result{
		Limit:   limit,
		ResetAt: time.Now().Add(ttl.Val()),
	}
	if n > limit {
		return res, nil
	}
	res.Allowed = true
	res.Remaining = limit - n
	return res, nil
}
