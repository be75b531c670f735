package store

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written to Redis.
const DefaultRedisPrefix = "livepreview:"

var _ Store = (*Redis)(nil)

// Redis stores values as plain strings under prefix+"kv:"+key and keeps a
// lexicographically ordered index (a sorted set with equal scores) so List
// never has to SCAN the keyspace.
type Redis struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithPrefix sets the key prefix. The empty prefix keeps the default.
func WithPrefix(prefix string) RedisOption {
	return func(s *Redis) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedis creates a Redis store with its own client.
func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(rdb, opts...)
}

// NewRedisFromClient creates a Redis store from an existing client.
// Close closes the client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) key(key string) string {
	return s.prefix + "kv:" + key
}

func (s *Redis) indexKey() string {
	return s.prefix + "index"
}

// Ping checks that the server is reachable.
func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

// Get retrieves the value of key.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Put writes the value and indexes the key in one pipeline.
func (s *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(key), value, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes the value and its index entry.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// List reads the index range [prefix, prefix+0xff).
func (s *Redis) List(ctx context.Context, prefix string) ([]string, error) {
	by := &backend.ZRangeBy{Min: "-", Max: "+"}
	if prefix != "" {
		by = &backend.ZRangeBy{Min: "[" + prefix, Max: "(" + prefix + "\xff"}
	}
	keys, err := s.client.ZRangeByLex(ctx, s.indexKey(), by).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Close closes the redis client.
func (s *Redis) Close() error {
	return s.client.Close()
}
