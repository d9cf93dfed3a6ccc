package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisVersionSuffix = "#v"

// Scripts keep the value and its version key in lockstep so concurrent
// writers observe consistent pairs.
var (
	redisGetScript = redis.NewScript(`
local value = redis.call('GET', KEYS[1])
if value == false then
  return false
end
local version = redis.call('GET', KEYS[2])
if version == false then
  version = '0'
end
return {value, version}
`)

	redisCASScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if current == false then
  current = '0'
end
if current ~= ARGV[2] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('INCR', KEYS[2])
return 1
`)
)

// Redis is a KV backend storing each value alongside a version counter.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps the provided client. The prefix namespaces all keys.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get returns the value and version stored under key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	k := r.key(key)
	result, err := redisGetScript.Run(ctx, r.client, []string{k, k + redisVersionSuffix}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, 0, ErrKeyNotFound
		}
		return nil, 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	pair, ok := result.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, 0, ErrKeyNotFound
	}
	value, version := toBytes(pair[0]), toUint(pair[1])
	return value, version, nil
}

// Set stores the value unconditionally and bumps the version counter.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	k := r.key(key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, value, 0)
		pipe.Incr(ctx, k+redisVersionSuffix)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap stores the value only when the version counter matches.
func (r *Redis) CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) error {
	k := r.key(key)
	result, err := redisCASScript.Run(ctx, r.client,
		[]string{k, k + redisVersionSuffix},
		value, fmt.Sprintf("%d", version),
	).Int()
	if err != nil {
		return fmt.Errorf("redis cas %s: %w", key, err)
	}
	if result != 1 {
		return ErrVersionConflict
	}
	return nil
}

// Delete removes the value and its version counter.
func (r *Redis) Delete(ctx context.Context, key string) error {
	k := r.key(key)
	if err := r.client.Del(ctx, k, k+redisVersionSuffix).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix, version keys excluded.
func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := r.key(prefix) + "*"
	keys := make([]string, 0)
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	strip := 0
	if r.prefix != "" {
		strip = len(r.prefix) + 1
	}
	for iter.Next(ctx) {
		key := iter.Val()
		if len(key) > len(redisVersionSuffix) && key[len(key)-len(redisVersionSuffix):] == redisVersionSuffix {
			continue
		}
		keys = append(keys, key[strip:])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	return keys, nil
}

func toBytes(v interface{}) []byte {
	switch typed := v.(type) {
	case string:
		return []byte(typed)
	case []byte:
		return typed
	default:
		return nil
	}
}

func toUint(v interface{}) uint64 {
	switch typed := v.(type) {
	case string:
		var n uint64
		_, _ = fmt.Sscanf(typed, "%d", &n)
		return n
	case int64:
		return uint64(typed)
	default:
		return 0
	}
}
