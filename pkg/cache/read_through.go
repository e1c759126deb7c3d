// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// LoadFunc reads id from the source of truth.
type LoadFunc[T any] func(ctx context.Context, id string) (T, error)

// ReadThrough caches the values of a keyspace as JSON in Redis. Concurrent
// misses on one id share a single load. Load errors are never cached, and a
// nil ICache turns every Get into a load.
type ReadThrough[T any] struct {
	cache  ICache
	prefix string
	ttl    time.Duration
	load   LoadFunc[T]
	group  singleflight.Group
}

func NewReadThrough[T any](c ICache, prefix string, ttl time.Duration, load LoadFunc[T]) *ReadThrough[T] {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReadThrough[T]{cache: c, prefix: prefix, ttl: ttl, load: load}
}

func (r *ReadThrough[T]) Key(id string) string {
	return r.prefix + id
}

func (r *ReadThrough[T]) Get(ctx context.Context, id string) (T, error) {
	key := r.Key(id)
	if v, ok := r.cached(ctx, key); ok {
		return v, nil
	}

	// the first caller's ctx bounds the shared load
	out, err, _ := r.group.Do(key, func() (any, error) {
		v, err := r.load(ctx, id)
		if err != nil {
			return v, err
		}
		r.store(ctx, key, v)
		return v, nil
	})
	v, _ := out.(T)
	return v, err
}

func (r *ReadThrough[T]) cached(ctx context.Context, key string) (T, bool) {
	var v T
	if r.cache == nil {
		return v, false
	}
	raw, err := r.cache.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return v, false
	case err != nil:
		log.Warnw("cache read failed, loading from source", "key", key, "error", err)
		return v, false
	}
	if err := sonic.UnmarshalString(raw, &v); err != nil {
		log.Warnw("cache entry undecodable, reloading", "key", key, "error", err)
		return v, false
	}
	return v, true
}

func (r *ReadThrough[T]) store(ctx context.Context, key string, v T) {
	if r.cache == nil {
		return
	}
	raw, err := sonic.MarshalString(v)
	if err != nil {
		log.Warnw("cache entry not encodable", "key", key, "error", err)
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		log.Warnw("cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops the cached id; the next Get loads it again.
func (r *ReadThrough[T]) Invalidate(ctx context.Context, id string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Del(ctx, r.Key(id)).Err()
}
