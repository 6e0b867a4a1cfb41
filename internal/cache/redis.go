package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workshoplabs/refgate/internal/logger"
)

// Redis is a shared KV on a Redis server, for deployments where several
// gateway instances should see one cache. Keys are namespaced with a prefix
// so Clear only touches entries owned by this store. TTL enforcement is
// delegated to Redis itself.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	ctx    context.Context
}

// RedisOptions configures a Redis store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces all keys. Defaults to "refgate:".
	KeyPrefix string
	// TTL is the freshness window applied on every Set. Zero means
	// DefaultTTL; negative stores entries without expiry.
	TTL time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "refgate:"
	}
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, ctx: ctx}, nil
}

func (s *Redis) key(k string) string { return s.prefix + k }

func (s *Redis) Get(key string) ([]byte, bool) {
	val, err := s.client.Get(s.ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Errorf("cache: redis get %q: %v", key, err)
		return nil, false
	}
	return val, true
}

func (s *Redis) Set(key string, value []byte) {
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0 // redis: zero expiry means keep forever
	}
	if err := s.client.Set(s.ctx, s.key(key), value, ttl).Err(); err != nil {
		logger.Errorf("cache: redis set %q: %v", key, err)
	}
}

func (s *Redis) Delete(keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	if err := s.client.Del(s.ctx, prefixed...).Err(); err != nil {
		logger.Errorf("cache: redis delete: %v", err)
	}
}

func (s *Redis) Clear() {
	iter := s.client.Scan(s.ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(s.ctx) {
		if err := s.client.Del(s.ctx, iter.Val()).Err(); err != nil {
			logger.Errorf("cache: redis clear %q: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		logger.Errorf("cache: redis clear scan: %v", err)
	}
}

// Close releases the underlying connection.
func (s *Redis) Close() error {
	return s.client.Close()
}
