package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "RT:"

// RefreshStore keeps the one valid refresh token per user in Redis, keyed by
// email with a TTL matching the token's lifetime. Rotation overwrites the key
// so a superseded token stops working immediately.
type RefreshStore struct {
	rdb *redis.Client
}

func NewRefreshStore(rdb *redis.Client) *RefreshStore {
	return &RefreshStore{rdb: rdb}
}

func (s *RefreshStore) Save(ctx context.Context, email, token string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, refreshKeyPrefix+email, token, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// Get returns the stored refresh token for email, or "" when none exists.
func (s *RefreshStore) Get(ctx context.Context, email string) (string, error) {
	val, err := s.rdb.Get(ctx, refreshKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	return val, nil
}

func (s *RefreshStore) Delete(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, refreshKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
