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

package algorithm

import (
	"context"
	"math"
	"time"

	"ratelimiter/internal/ratelimit/clock"
	"ratelimiter/internal/ratelimit/reason"
	"ratelimiter/internal/ratelimit/storage"
)

type leakyBucketState struct {
	Water    float64 `json:"water"`
	LastLeak float64 `json:"last_leak"`
}

// LeakyBucket admits a request when the queue (Water) has not reached
// Capacity, leaking at Rate units/second.
type LeakyBucket struct {
	base
	Rate     float64
	Capacity float64
}

// NewLeakyBucket constructs a leaky-bucket limiter over store.
func NewLeakyBucket(store storage.Store, clk clock.Clock, keyPrefix string, rate, capacity float64) *LeakyBucket {
	return &LeakyBucket{
		base:     base{store: store, clock: clk, keyPrefix: keyPrefix, tag: TagLeakyBucket},
		Rate:     rate,
		Capacity: capacity,
	}
}

func (l *LeakyBucket) load(ctx context.Context, key string) leakyBucketState {
	now := l.clock.Now()
	raw, ok := l.store.Get(ctx, l.storageKey(key))
	if !ok {
		return leakyBucketState{Water: 0, LastLeak: now}
	}
	var st leakyBucketState
	if err := storage.Decode(raw, &st); err != nil || st.Water < 0 {
		return leakyBucketState{Water: 0, LastLeak: now}
	}
	return st
}

func (l *LeakyBucket) leak(st leakyBucketState, now float64) leakyBucketState {
	elapsed := now - st.LastLeak
	if elapsed < 0 {
		elapsed = 0
	}
	st.Water = clampNonNegative(st.Water - elapsed*l.Rate)
	return st
}

func (l *LeakyBucket) verdict(st leakyBucketState, now float64) Verdict {
	allowed := st.Water < l.Capacity
	v := Verdict{
		Allowed:   allowed,
		Remaining: int(math.Floor(l.Capacity - st.Water)),
		ResetTime: int64(math.Floor(now + 1.0/l.Rate)),
	}
	if allowed {
		v.ReasonCode = reason.OK
		return v
	}
	wait := int64(math.Ceil((st.Water - l.Capacity + 1) / l.Rate))
	v.Reason, v.ReasonCN = reason.LeakyBucket(l.Rate, wait)
	v.ReasonCode = reason.QueueFull
	return v
}

// GetStatus recomputes the leaked water level as of now without writing it.
func (l *LeakyBucket) GetStatus(ctx context.Context, key string) (Verdict, error) {
	now := l.clock.Now()
	st := l.leak(l.load(ctx, key), now)
	return l.verdict(st, now), nil
}

// Check leaks, then admits by adding one unit of water if under capacity.
func (l *LeakyBucket) Check(ctx context.Context, key string) (Verdict, error) {
	status, _ := l.GetStatus(ctx, key)
	if !status.Allowed {
		return status, nil
	}
	now := l.clock.Now()
	st := l.leak(l.load(ctx, key), now)
	if st.Water >= l.Capacity {
		return l.verdict(st, now), nil
	}
	st.Water += 1
	st.LastLeak = now
	raw, err := storage.Encode(st)
	if err == nil {
		ttl := time.Duration(max64(int64(math.Ceil(st.Water/l.Rate)), minTTLSeconds)) * time.Second
		_ = l.store.Set(ctx, l.storageKey(key), raw, ttl)
	}
	return l.verdict(st, now), nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
