package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"takaful/pkg/platform/sentinel"
)

// Redis key prefixes for OTP challenges.
const (
	codeKeyPrefix     = "otp:code:"
	attemptsKeyPrefix = "otp:attempts:"
	resendKeyPrefix   = "otp:resend:"
)

// RedisStore is the production OTP store. TTLs make expiry automatic and the
// keys are shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveCode(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, codeKeyPrefix+phone, codeHash, ttl)
	pipe.Del(ctx, attemptsKeyPrefix+phone)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadCode(ctx context.Context, phone string) (string, error) {
	hash, err := s.client.Get(ctx, codeKeyPrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load otp challenge: %w", err)
	}
	return hash, nil
}

func (s *RedisStore) CountAttempt(ctx context.Context, phone string) (int, error) {
	key := attemptsKeyPrefix + phone
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	// Attempts expire with the challenge; a generous cap keeps the counter
	// from outliving a code that was never verified.
	pipe.Expire(ctx, key, 15*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count otp attempt: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Clear(ctx context.Context, phone string) error {
	return s.client.Del(ctx, codeKeyPrefix+phone, attemptsKeyPrefix+phone).Err()
}

func (s *RedisStore) MarkSent(ctx context.Context, phone string, window time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, resendKeyPrefix+phone, "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("mark otp sent: %w", err)
	}
	return ok, nil
}
