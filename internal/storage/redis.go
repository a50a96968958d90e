package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each blob under "<Namespace>:blob:<name>" and indexes the
// names in the sorted set "<Namespace>:names" so List can page through them
// in lexical order without SCAN.
type RedisStore struct {
	rdb       *redis.Client
	Namespace string
}

func NewRedisStore(rdb *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = "doko"
	}
	return &RedisStore{rdb: rdb, Namespace: namespace}
}

func (s *RedisStore) blobKey(name string) string { return s.Namespace + ":blob:" + name }
func (s *RedisStore) indexKey() string           { return s.Namespace + ":names" }

func (s *RedisStore) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.blobKey(name), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: name})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.blobKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis read %s: %w", name, err)
	}
	return data, nil
}

// List relies on every member having score 0, which makes ZRANGEBYLEX
// return them in byte order.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	by := &redis.ZRangeBy{Min: "-", Max: "+"}
	if prefix != "" {
		by = &redis.ZRangeBy{Min: "[" + prefix, Max: "(" + prefix + "\xff"}
	}
	names, err := s.rdb.ZRangeByLex(ctx, s.indexKey(), by).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list %s: %w", prefix, err)
	}
	return filterSorted(names, prefix), nil
}
