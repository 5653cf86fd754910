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

// Package algorithm implements the five rate-limiting state machines: token
// bucket, fixed window, sliding window, leaky bucket, and the composite
// multiple-buckets limiter. Each is a thin struct over a storage.Store and a
// clock.Clock; none hold state of their own between calls, and none spawn
// background goroutines — every suspension point is a Store call or a clock
// read, per the passive-library concurrency model the core requires.
package algorithm

import (
	"context"
	"math"

	"ratelimiter/internal/ratelimit/clock"
	"ratelimiter/internal/ratelimit/reason"
	"ratelimiter/internal/ratelimit/storage"
)

// Tag identifies one of the five algorithms, both in configuration records
// and in the storage key namespace.
type Tag string

const (
	TagTokenBucket     Tag = "token_bucket"
	TagFixedWindow     Tag = "fixed_window"
	TagSlidingWindow   Tag = "sliding_window"
	TagLeakyBucket     Tag = "leaky_bucket"
	TagMultipleBuckets Tag = "multiple_buckets"
)

// Valid reports whether t is one of the five recognized algorithm tags.
func (t Tag) Valid() bool {
	switch t {
	case TagTokenBucket, TagFixedWindow, TagSlidingWindow, TagLeakyBucket, TagMultipleBuckets:
		return true
	}
	return false
}

// Verdict is the uniform result of Check and GetStatus.
type Verdict struct {
	Allowed    bool
	Remaining  int
	ResetTime  int64
	Reason     string
	ReasonCN   string
	ReasonCode reason.Code
}

// Algorithm is the narrow two-method contract every rate limiter implements.
// GetStatus is a pure read: it must not mutate any externally visible state.
// Check is the only mutator and is itself built from GetStatus plus, when
// allowed, a single discrete consumption step.
type Algorithm interface {
	Check(ctx context.Context, key string) (Verdict, error)
	GetStatus(ctx context.Context, key string) (Verdict, error)
}

// base carries the fields every algorithm needs to build its storage key and
// read time; it is embedded, never used as a shared mutable-state base.
type base struct {
	store     storage.Store
	clock     clock.Clock
	keyPrefix string
	tag       Tag
}

// storageKey builds "<prefix>:<tag>:<compositeKey>", the namespace that
// isolates one algorithm's state from another's even when both are
// configured for the same compositeKey (spec invariant: switching a
// unique_id's algorithm_type must not silently inherit counters).
func (b base) storageKey(compositeKey string) string {
	return b.keyPrefix + ":" + string(b.tag) + ":" + compositeKey
}

// minTTLSeconds is the floor the token-bucket, fixed-window, leaky-bucket and
// multiple-buckets writes apply to their computed TTL (and the value ceilDiv1
// returns for a non-positive rate), so none of them hands the Store a zero
// TTL, which the Store treats as "no expiry".
const minTTLSeconds = 1

func ceilDiv1(rate float64) int64 {
	if rate <= 0 {
		return minTTLSeconds
	}
	v := int64(math.Ceil(1.0 / rate))
	if v < minTTLSeconds {
		return minTTLSeconds
	}
	return v
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampInt(v, lo int) int {
	if v < lo {
		return lo
	}
	return v
}
