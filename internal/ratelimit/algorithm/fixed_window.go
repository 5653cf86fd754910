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

type fixedWindowState struct {
	Start int64 `json:"start"`
	Count int   `json:"count"`
}

// FixedWindow admits up to MaxRequests per aligned WindowSize-second window.
type FixedWindow struct {
	base
	MaxRequests int
	WindowSize  int64
}

// NewFixedWindow constructs a fixed-window limiter over store.
func NewFixedWindow(store storage.Store, clk clock.Clock, keyPrefix string, maxRequests int, windowSize int64) *FixedWindow {
	return &FixedWindow{
		base:        base{store: store, clock: clk, keyPrefix: keyPrefix, tag: TagFixedWindow},
		MaxRequests: maxRequests,
		WindowSize:  windowSize,
	}
}

// currentWindow returns the count valid for now's aligned window: a stored
// state whose Start disagrees with now's window boundary is semantically
// absent and must reset to zero before counting.
func (f *FixedWindow) currentWindow(ctx context.Context, key string, now int64) (windowStart int64, count int) {
	windowStart = now - (now % f.WindowSize)
	raw, ok := f.store.Get(ctx, f.storageKey(key))
	if !ok {
		return windowStart, 0
	}
	var st fixedWindowState
	if err := storage.Decode(raw, &st); err != nil || st.Count < 0 {
		return windowStart, 0
	}
	if st.Start != windowStart {
		return windowStart, 0
	}
	return windowStart, st.Count
}

func (f *FixedWindow) verdict(windowStart int64, count int) Verdict {
	allowed := count < f.MaxRequests
	resetTime := windowStart + f.WindowSize
	v := Verdict{
		Allowed:   allowed,
		Remaining: clampInt(f.MaxRequests-count, 0),
		ResetTime: resetTime,
	}
	if allowed {
		v.ReasonCode = reason.OK
		return v
	}
	v.ReasonCode = reason.MaxReq
	return v
}

// GetStatus is a pure read: it recomputes the window but never writes.
func (f *FixedWindow) GetStatus(ctx context.Context, key string) (Verdict, error) {
	now := int64(math.Floor(f.clock.Now()))
	windowStart, count := f.currentWindow(ctx, key, now)
	v := f.verdict(windowStart, count)
	if !v.Allowed {
		wait := v.ResetTime - now
		v.Reason, v.ReasonCN = reason.WindowText(f.MaxRequests, f.WindowSize, count, wait)
	}
	return v, nil
}

// Check admits and increments the window count when under the limit.
func (f *FixedWindow) Check(ctx context.Context, key string) (Verdict, error) {
	status, _ := f.GetStatus(ctx, key)
	if !status.Allowed {
		return status, nil
	}
	now := int64(math.Floor(f.clock.Now()))
	windowStart, count := f.currentWindow(ctx, key, now)
	if count >= f.MaxRequests {
		return f.verdict(windowStart, count), nil
	}
	count++
	raw, err := storage.Encode(fixedWindowState{Start: windowStart, Count: count})
	if err == nil {
		ttlSeconds := windowStart + f.WindowSize - now
		if ttlSeconds < minTTLSeconds {
			ttlSeconds = minTTLSeconds
		}
		_ = f.store.Set(ctx, f.storageKey(key), raw, time.Duration(ttlSeconds)*time.Second)
	}
	// This request was admitted regardless of whether the increment filled
	// the window exactly to the limit.
	return Verdict{
		Allowed:    true,
		Remaining:  clampInt(f.MaxRequests-count, 0),
		ResetTime:  windowStart + f.WindowSize,
		ReasonCode: reason.OK,
	}, nil
}
