package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sopaco/deepwiki-rs/config"
)

// redisBackend stores cache entries as Redis strings keyed by
// "category:digest", an alternate backend to the disk layout exercising
// the teacher's go-redis dependency (SPEC_FULL.md §2 domain-stack wiring).
type redisBackend struct {
	client *redis.Client
}

func newRedisBackend(cfg config.RedisConfig) (*redisBackend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis backend requires cache.redis.addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisBackend{client: client}, nil
}

func (r *redisBackend) key(category, digest string) string {
	return category + ":" + digest
}

func (r *redisBackend) read(category, digest string) ([]byte, bool, error) {
	val, err := r.client.Get(context.Background(), r.key(category, digest)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *redisBackend) write(category, digest string, data []byte) error {
	return r.client.Set(context.Background(), r.key(category, digest), data, 0).Err()
}

func (r *redisBackend) remove(category, digest string) error {
	return r.client.Del(context.Background(), r.key(category, digest)).Err()
}
