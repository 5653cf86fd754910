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

// multipleBucketsState carries the token-bucket, sliding-window, and
// leaky-bucket sub-states simultaneously; the fixed-window aspect is
// subsumed by the sliding window here, per spec.
type multipleBucketsState struct {
	Tokens     float64   `json:"tokens"`
	LastRefill float64   `json:"last_refill"`
	Requests   []float64 `json:"requests"`
	Water      float64   `json:"water"`
	LastLeak   float64   `json:"last_leak"`
}

// MultipleBuckets admits only when all three sub-limits pass simultaneously.
type MultipleBuckets struct {
	base
	Rate        float64
	Capacity    float64
	MaxRequests int
	WindowSize  int64
}

// NewMultipleBuckets constructs the composite limiter over store.
func NewMultipleBuckets(store storage.Store, clk clock.Clock, keyPrefix string, rate, capacity float64, maxRequests int, windowSize int64) *MultipleBuckets {
	return &MultipleBuckets{
		base:        base{store: store, clock: clk, keyPrefix: keyPrefix, tag: TagMultipleBuckets},
		Rate:        rate,
		Capacity:    capacity,
		MaxRequests: maxRequests,
		WindowSize:  windowSize,
	}
}

func (m *MultipleBuckets) load(ctx context.Context, key string, now float64) multipleBucketsState {
	raw, ok := m.store.Get(ctx, m.storageKey(key))
	if !ok {
		return multipleBucketsState{Tokens: m.Capacity, LastRefill: now, LastLeak: now}
	}
	var st multipleBucketsState
	if err := storage.Decode(raw, &st); err != nil || st.Tokens < 0 || st.Water < 0 {
		return multipleBucketsState{Tokens: m.Capacity, LastRefill: now, LastLeak: now}
	}
	return st
}

// advance refills tokens, purges stale requests, and leaks water, all as of
// now, without persisting.
func (m *MultipleBuckets) advance(st multipleBucketsState, now float64) multipleBucketsState {
	elapsedRefill := now - st.LastRefill
	if elapsedRefill < 0 {
		elapsedRefill = 0
	}
	st.Tokens = math.Min(m.Capacity, st.Tokens+elapsedRefill*m.Rate)

	cutoff := now - float64(m.WindowSize)
	purged := st.Requests[:0:0]
	for _, t := range st.Requests {
		if t > cutoff {
			purged = append(purged, t)
		}
	}
	st.Requests = purged

	elapsedLeak := now - st.LastLeak
	if elapsedLeak < 0 {
		elapsedLeak = 0
	}
	st.Water = clampNonNegative(st.Water - elapsedLeak*m.Rate)

	return st
}

func (m *MultipleBuckets) verdict(st multipleBucketsState, now float64) Verdict {
	tokenOK := st.Tokens >= 1
	slidingOK := len(st.Requests) < m.MaxRequests
	leakyOK := st.Water < m.Capacity
	allowed := tokenOK && slidingOK && leakyOK

	remaining := int(math.Floor(st.Tokens))
	if r := m.MaxRequests - len(st.Requests); r < remaining {
		remaining = r
	}
	if r := int(math.Floor(m.Capacity - st.Water)); r < remaining {
		remaining = r
	}
	remaining = clampInt(remaining, 0)

	resetTime := int64(math.Floor(now + float64(m.WindowSize)))
	haveCandidate := false
	consider := func(t int64) {
		if !haveCandidate || t < resetTime {
			resetTime = t
			haveCandidate = true
		}
	}
	if st.Tokens < m.Capacity {
		consider(int64(math.Floor(now + (m.Capacity-st.Tokens)/m.Rate)))
	}
	if len(st.Requests) > 0 {
		consider(int64(math.Floor(st.Requests[0] + float64(m.WindowSize))))
	}
	if st.Water > 0 {
		consider(int64(math.Floor(now + st.Water/m.Rate)))
	}

	v := Verdict{Allowed: allowed, Remaining: remaining, ResetTime: resetTime}
	if allowed {
		v.ReasonCode = reason.OK
		return v
	}

	// First failing sub-limit wins, in token -> sliding -> leaky order.
	v.ReasonCode = reason.Multi
	switch {
	case !tokenOK:
		wait := int64(math.Ceil((1 - st.Tokens) / m.Rate))
		v.Reason, v.ReasonCN = reason.TokenBucket(m.Rate, wait)
	case !slidingOK:
		wait := resetTime - int64(math.Floor(now))
		v.Reason, v.ReasonCN = reason.WindowText(m.MaxRequests, m.WindowSize, len(st.Requests), wait)
	case !leakyOK:
		wait := int64(math.Ceil((st.Water - m.Capacity + 1) / m.Rate))
		v.Reason, v.ReasonCN = reason.LeakyBucket(m.Rate, wait)
	default:
		v.Reason, v.ReasonCN = reason.MultipleFallback(resetTime - int64(math.Floor(now)))
	}
	return v
}

// GetStatus advances all three sub-states as of now without persisting them.
func (m *MultipleBuckets) GetStatus(ctx context.Context, key string) (Verdict, error) {
	now := m.clock.Now()
	st := m.advance(m.load(ctx, key, now), now)
	return m.verdict(st, now), nil
}

// Check admits only when token, sliding, and leaky sub-limits all pass, then
// consumes from all three simultaneously.
func (m *MultipleBuckets) Check(ctx context.Context, key string) (Verdict, error) {
	status, _ := m.GetStatus(ctx, key)
	if !status.Allowed {
		return status, nil
	}
	now := m.clock.Now()
	st := m.advance(m.load(ctx, key, now), now)
	if st.Tokens < 1 || len(st.Requests) >= m.MaxRequests || st.Water >= m.Capacity {
		return m.verdict(st, now), nil
	}
	st.Tokens -= 1
	st.LastRefill = now
	st.Requests = append(st.Requests, now)
	st.Water += 1
	st.LastLeak = now

	raw, err := storage.Encode(st)
	if err == nil {
		ttl := time.Duration(m.WindowSize) * time.Second
		if ttl < minTTLSeconds*time.Second {
			ttl = minTTLSeconds * time.Second
		}
		_ = m.store.Set(ctx, m.storageKey(key), raw, ttl)
	}
	return m.verdict(st, now), nil
}
