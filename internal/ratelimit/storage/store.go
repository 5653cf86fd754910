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

// Package storage defines the pluggable key-value contract the rate limiter
// algorithms and the limiter service persist their state through, and ships
// two backends: an in-process, host-provided-KV-shaped store and a Redis-backed
// external store.
//
// Both backends fail open: a backend error is indistinguishable from a clean
// miss. Callers above this package must not treat a store error as fatal.
package storage

import (
	"context"
	"time"
)

// Store is the opaque byte-oriented key-value contract every algorithm and the
// limiter's configuration registry persist through. Implementations must
// swallow backend errors: Get returns (nil, false) and Set/Delete return nil
// on any underlying failure, so that a store outage degrades to fail-open
// behavior rather than propagating as an error to callers.
type Store interface {
	// Get returns the value most recently written for key, or ok=false if the
	// key is absent, expired, or the backend failed.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set persists value under key. If ttl > 0 the key becomes absent after
	// ttl elapses. A ttl <= 0 means "no expiry" for backends that support it;
	// callers needing a bound should always pass a positive ttl (the
	// algorithms package clamps to a 1-second minimum per spec-derived
	// guidance, see internal/ratelimit/algorithm).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. A no-op (not an error) if the key is already absent.
	Delete(ctx context.Context, key string) error
}
