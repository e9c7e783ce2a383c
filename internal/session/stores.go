package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sess:"

// RedisStore keeps sessions in redis so they survive restarts and are shared
// between instances.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, p Principal) error {
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKeyPrefix+p.SessionID, b, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Principal, error) {
	b, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Principal{}, ErrNotFound
	}
	if err != nil {
		return Principal{}, err
	}
	var p Principal
	if err := json.Unmarshal(b, &p); err != nil {
		return Principal{}, err
	}
	return p, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}

// MemoryStore is the single-process fallback used when redis is not
// configured.
type MemoryStore struct {
	cache *gocache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cache: gocache.New(24*time.Hour, 10*time.Minute)}
}

func (s *MemoryStore) Save(_ context.Context, p Principal) error {
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(p.SessionID, p, ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Principal, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return Principal{}, ErrNotFound
	}
	p, ok := v.(Principal)
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}
