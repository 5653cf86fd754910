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

	"ratelimiter/internal/ratelimit/reason"
	"ratelimiter/internal/ratelimit/storage"

	"ratelimiter/internal/ratelimit/clock"
)

// tokenBucketState is the persisted shape for a single token bucket.
type tokenBucketState struct {
	Tokens     float64 `json:"tokens"`
	LastRefill float64 `json:"last_refill"`
}

// TokenBucket admits a request when at least one token is available,
// refilling continuously at Rate tokens/second up to Capacity.
type TokenBucket struct {
	base
	Rate     float64
	Capacity float64
}

// NewTokenBucket constructs a token bucket limiter over store.
func NewTokenBucket(store storage.Store, clk clock.Clock, keyPrefix string, rate, capacity float64) *TokenBucket {
	return &TokenBucket{
		base:     base{store: store, clock: clk, keyPrefix: keyPrefix, tag: TagTokenBucket},
		Rate:     rate,
		Capacity: capacity,
	}
}

func (t *TokenBucket) load(ctx context.Context, key string) tokenBucketState {
	now := t.clock.Now()
	raw, ok := t.store.Get(ctx, t.storageKey(key))
	if !ok {
		return tokenBucketState{Tokens: t.Capacity, LastRefill: now}
	}
	var st tokenBucketState
	if err := storage.Decode(raw, &st); err != nil || st.Tokens < 0 || st.Tokens > t.Capacity+1e-9 {
		// Corrupt/impossible state is treated as absent and reinitialized.
		return tokenBucketState{Tokens: t.Capacity, LastRefill: now}
	}
	return st
}

// refill returns the state with tokens advanced to now, without persisting.
func (t *TokenBucket) refill(st tokenBucketState, now float64) tokenBucketState {
	elapsed := now - st.LastRefill
	if elapsed < 0 {
		elapsed = 0
	}
	st.Tokens = math.Min(t.Capacity, st.Tokens+elapsed*t.Rate)
	return st
}

func (t *TokenBucket) verdict(st tokenBucketState, now float64) Verdict {
	allowed := st.Tokens >= 1
	v := Verdict{
		Allowed:   allowed,
		Remaining: int(math.Floor(st.Tokens)),
		ResetTime: int64(math.Floor(now + 1.0/t.Rate)),
	}
	if allowed {
		v.ReasonCode = reason.OK
		return v
	}
	wait := int64(math.Ceil((1 - st.Tokens) / t.Rate))
	v.Reason, v.ReasonCN = reason.TokenBucket(t.Rate, wait)
	v.ReasonCode = reason.NoTokens
	return v
}

// GetStatus recomputes the bucket's state as of now without writing it back.
func (t *TokenBucket) GetStatus(ctx context.Context, key string) (Verdict, error) {
	now := t.clock.Now()
	st := t.refill(t.load(ctx, key), now)
	return t.verdict(st, now), nil
}

// Check performs the read-decide-write sequence: status first, then on
// admission it re-reads, re-refills, consumes one token, and persists.
func (t *TokenBucket) Check(ctx context.Context, key string) (Verdict, error) {
	status, _ := t.GetStatus(ctx, key)
	if !status.Allowed {
		return status, nil
	}
	now := t.clock.Now()
	st := t.refill(t.load(ctx, key), now)
	if st.Tokens < 1 {
		// Lost the race against a concurrent consumer; report current status.
		return t.verdict(st, now), nil
	}
	st.Tokens -= 1
	st.LastRefill = now
	raw, err := storage.Encode(st)
	if err == nil {
		ttl := time.Duration(ceilDiv1(t.Rate)) * time.Second
		_ = t.store.Set(ctx, t.storageKey(key), raw, ttl)
	}
	return t.verdict(st, now), nil
}
