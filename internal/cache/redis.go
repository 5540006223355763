package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a shared Redis client.  All
// keys are namespaced with a prefix so the season cache coexists with
// the rate limiter on the same server.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps the given client.  The prefix is prepended to every
// key with a ':' separator; pass "season" to get keys like
// "season:school:7".
func NewRedis(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

// Get fetches a key.  redis.Nil is reported as a plain miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bs, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.key(key), val, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.rdb.Del(ctx, full...).Err()
}

// Flush removes every key under the store's prefix using SCAN so the
// rest of the Redis database (rate limiter state) is left alone.
func (s *RedisStore) Flush(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
