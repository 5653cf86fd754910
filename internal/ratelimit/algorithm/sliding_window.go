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

type slidingWindowState struct {
	Requests []float64 `json:"requests"`
}

// SlidingWindow admits up to MaxRequests within any trailing WindowSize
// seconds, tracked as a purged list of admission timestamps.
type SlidingWindow struct {
	base
	MaxRequests int
	WindowSize  int64
}

// NewSlidingWindow constructs a sliding-window limiter over store.
func NewSlidingWindow(store storage.Store, clk clock.Clock, keyPrefix string, maxRequests int, windowSize int64) *SlidingWindow {
	return &SlidingWindow{
		base:        base{store: store, clock: clk, keyPrefix: keyPrefix, tag: TagSlidingWindow},
		MaxRequests: maxRequests,
		WindowSize:  windowSize,
	}
}

// purge returns the subset of requests newer than now - WindowSize, matching
// the invariant that every surviving timestamp satisfies t > now - window_size.
func (s *SlidingWindow) purge(requests []float64, now float64) []float64 {
	cutoff := now - float64(s.WindowSize)
	out := requests[:0:0]
	for _, t := range requests {
		if t > cutoff {
			out = append(out, t)
		}
	}
	return out
}

func (s *SlidingWindow) load(ctx context.Context, key string) []float64 {
	raw, ok := s.store.Get(ctx, s.storageKey(key))
	if !ok {
		return nil
	}
	var st slidingWindowState
	if err := storage.Decode(raw, &st); err != nil {
		return nil
	}
	return st.Requests
}

func (s *SlidingWindow) verdict(requests []float64, now float64) Verdict {
	allowed := len(requests) < s.MaxRequests
	var resetTime int64
	if len(requests) > 0 {
		resetTime = int64(math.Floor(requests[0] + float64(s.WindowSize)))
	} else {
		resetTime = int64(math.Floor(now + float64(s.WindowSize)))
	}
	v := Verdict{
		Allowed:   allowed,
		Remaining: clampInt(s.MaxRequests-len(requests), 0),
		ResetTime: resetTime,
	}
	if allowed {
		v.ReasonCode = reason.OK
		return v
	}
	wait := resetTime - int64(math.Floor(now))
	v.Reason, v.ReasonCN = reason.WindowText(s.MaxRequests, s.WindowSize, len(requests), wait)
	v.ReasonCode = reason.Window
	return v
}

// GetStatus purges expired samples in its computation but never persists.
func (s *SlidingWindow) GetStatus(ctx context.Context, key string) (Verdict, error) {
	now := s.clock.Now()
	requests := s.purge(s.load(ctx, key), now)
	return s.verdict(requests, now), nil
}

// Check admits and appends now to the window when under the limit.
func (s *SlidingWindow) Check(ctx context.Context, key string) (Verdict, error) {
	status, _ := s.GetStatus(ctx, key)
	if !status.Allowed {
		return status, nil
	}
	now := s.clock.Now()
	requests := s.purge(s.load(ctx, key), now)
	if len(requests) >= s.MaxRequests {
		return s.verdict(requests, now), nil
	}
	requests = append(requests, now)
	raw, err := storage.Encode(slidingWindowState{Requests: requests})
	if err == nil {
		_ = s.store.Set(ctx, s.storageKey(key), raw, time.Duration(s.WindowSize)*time.Second)
	}
	return s.verdict(requests, now), nil
}
