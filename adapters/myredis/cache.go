package myredis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-redis/redis/v8"
)

type redisCache[T any] struct {
	client    redis.UniversalClient
	prefix    string
	marshal   func(T) ([]byte, error)
	unmarshal func([]byte) (T, error)
}

var _ interfaces.Cache[int] = (*redisCache[int])(nil)

// NewCache creates the redis implementation of interfaces.Cache; keys are "prefix:key". Panics on nil
// client, empty prefix or nil codec functions.
func NewCache[T any](client redis.UniversalClient, prefix string, marshal func(T) ([]byte, error), unmarshal func([]byte) (T, error)) *redisCache[T] {
	return &redisCache[T]{
		client:    helpers.NilPanic(client, "myredis.cache.go: client is required"),
		prefix:    helpers.StrPanic(prefix, "myredis.cache.go: prefix is required"),
		marshal:   helpers.NilPanic(marshal, "myredis.cache.go: marshal is required"),
		unmarshal: helpers.NilPanic(unmarshal, "myredis.cache.go: unmarshal is required"),
	}
}

func (r *redisCache[T]) WriteValue(ctx context.Context, key string, item T, ttl time.Duration) error {
	bytes, err := r.marshal(item)
	if err != nil {
		return fmt.Errorf("can't marshal item of type %T, err: %w", item, err)
	}
	if err := r.client.Set(ctx, r.generateKey(key), bytes, ttl).Err(); err != nil {
		return fmt.Errorf("can't write item of type %T to redis (key='%s'), err: %w", item, key, err)
	}
	return nil
}

func (r *redisCache[T]) DeleteValue(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.generateKey(key)).Err(); err != nil {
		return fmt.Errorf("can't delete key '%s' from redis, err: %w", key, err)
	}
	return nil
}

// ListAllValues scans the keys under the prefix then fetches their values.
func (r *redisCache[T]) ListAllValues(ctx context.Context) ([]T, error) {
	var fullKeys []string
	iter := r.client.Scan(ctx, 0, r.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		fullKeys = append(fullKeys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan keys error, err: %w", err)
	}

	prefixWithColon := r.prefix + ":"
	items := make([]T, 0, len(fullKeys))
	for _, k := range fullKeys {
		if !strings.HasPrefix(k, prefixWithColon) {
			continue
		}
		bytes, err := r.client.Get(ctx, k).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("redis get key '%s' error, err: %w", k, err)
		}
		item, err := r.unmarshal(bytes)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *redisCache[T]) generateKey(key string) string {
	return r.prefix + ":" + key
}
