package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// RedisStore holds sessions in Redis with a sliding TTL. State
// survives bot restarts, which matters because registration spans
// several messages.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (Session, bool, error) {
	raw, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("session get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, false, fmt.Errorf("session decode: %w", err)
	}
	return sess, true, nil
}

func (s *RedisStore) Put(ctx context.Context, userID int64, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.rdb.Set(ctx, key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
