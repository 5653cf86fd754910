// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCmdable is the minimal surface RedisStore needs from a Redis client.
// github.com/redis/go-redis/v9's *redis.Client satisfies this.
type RedisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore is an external-KV Store backed by Redis. TTL is delegated to the
// backend; values are opaque byte blobs produced by the algorithm/config codec.
type RedisStore struct {
	client RedisCmdable
	log    *slog.Logger
}

// NewRedisStore wraps an existing Redis client, e.g. one constructed with
// redis.NewClient(&redis.Options{Addr: addr}).
func NewRedisStore(client RedisCmdable) *RedisStore {
	return &RedisStore{client: client, log: slog.Default()}
}

// NewRedisStoreAddr is a convenience constructor that dials a go-redis/v9
// client for the given address (e.g. "127.0.0.1:6379").
func NewRedisStoreAddr(addr string) *RedisStore {
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
}

// Get returns the value for key, swallowing any backend error as a miss —
// the store is a caching layer, not the authority, so a Redis outage must
// fail open rather than surface to callers.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn("ratelimit: redis get failed, treating as miss", "key", key, "error", err)
		}
		return nil, false
	}
	return b, true
}

// Set persists value under key with the given ttl (0 means no expiry).
// Errors are logged and swallowed per the fail-open contract.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Warn("ratelimit: redis set failed, ignoring", "key", key, "error", err)
	}
	return nil
}

// Delete removes key. Errors are logged and swallowed.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Warn("ratelimit: redis delete failed, ignoring", "key", key, "error", err)
	}
	return nil
}
