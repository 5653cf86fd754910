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

// Package limiter implements the Limiter Service: parameter validation,
// per-unique_id configuration resolution, and dispatch to the right
// algorithm. It is the only layer callers interact with directly; Storage
// and the algorithms are implementation details behind it.
package limiter

import (
	"context"
	"log/slog"
	"time"

	"ratelimiter/internal/ratelimit/algorithm"
	"ratelimiter/internal/ratelimit/clock"
	"ratelimiter/internal/ratelimit/rlerr"
	"ratelimiter/internal/ratelimit/storage"
	"ratelimiter/internal/ratelimit/telemetry"
)

// DefaultKeyPrefix is the storage namespace root used when none is supplied.
const DefaultKeyPrefix = "safety_chat:rate_limiter"

// CheckParams is the input to Service.Check. Rate, Capacity, MaxRequests,
// and WindowSize are optional: a nil pointer falls through to the
// algorithm's documented default (see config.go), mirroring the source's
// kwargs.get(...) parameter resolution.
type CheckParams struct {
	UserID        string
	ActionType    string
	UniqueID      string
	AlgorithmType algorithm.Tag
	Rate          *float64
	Capacity      *float64
	MaxRequests   *int
	WindowSize    *int64
}

// StatusParams is the input to Service.Status.
type StatusParams struct {
	UserID   string
	UniqueID string
}

// StatusResult is the result of Service.Status. Found is false when no
// configuration exists yet for UniqueID — this is an informational outcome
// distinct from both a Verdict and an error.
type StatusResult struct {
	Found   bool
	Verdict algorithm.Verdict
	Config  Config
}

// Service is the Limiter Service: it owns the configuration registry and
// constructs the right algorithm per call. It holds no per-key state of its
// own; all state lives in Store.
type Service struct {
	store     storage.Store
	clock     clock.Clock
	keyPrefix string
	log       *slog.Logger
}

// NewService constructs a Service backed by store, using the given clock and
// storage key prefix (pass "" to use DefaultKeyPrefix).
func NewService(store storage.Store, clk clock.Clock, keyPrefix string) *Service {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Service{store: store, clock: clk, keyPrefix: keyPrefix, log: slog.Default()}
}

func (s *Service) configKey(uniqueID string) string {
	return s.keyPrefix + ":config:" + uniqueID
}

func compositeKey(userID, actionType, uniqueID string) string {
	return userID + ":" + actionType + ":" + uniqueID
}

func (s *Service) loadConfig(ctx context.Context, uniqueID string) (Config, bool) {
	raw, ok := s.store.Get(ctx, s.configKey(uniqueID))
	if !ok {
		return Config{}, false
	}
	var cfg Config
	if err := storage.Decode(raw, &cfg); err != nil {
		s.log.Warn("ratelimit: corrupt config record, treating as absent", "unique_id", uniqueID, "error", err)
		return Config{}, false
	}
	return cfg, true
}

func (s *Service) saveConfig(ctx context.Context, uniqueID string, cfg Config) {
	raw, err := storage.Encode(cfg)
	if err != nil {
		s.log.Warn("ratelimit: failed to encode config", "unique_id", uniqueID, "error", err)
		return
	}
	if err := s.store.Set(ctx, s.configKey(uniqueID), raw, 0); err != nil {
		s.log.Warn("ratelimit: failed to persist config", "unique_id", uniqueID, "error", err)
	}
}

// resolveConfig reads the existing configuration for UniqueID and
// re-persists it whenever params disagree with any stored field, so a
// parameter change always takes effect instead of being silently ignored
// after the first write.
func (s *Service) resolveConfig(ctx context.Context, p CheckParams) Config {
	rate, capacity, maxRequests, windowSize := defaultParams(p.AlgorithmType, p.Rate, p.Capacity, p.MaxRequests, p.WindowSize)
	candidate := Config{
		ActionType:    p.ActionType,
		AlgorithmType: p.AlgorithmType,
		Rate:          rate,
		Capacity:      capacity,
		MaxRequests:   maxRequests,
		WindowSize:    windowSize,
	}

	existing, ok := s.loadConfig(ctx, p.UniqueID)
	if !ok || !existing.equalParams(candidate) {
		if ok {
			telemetry.ObserveConfigRepersist()
		}
		s.saveConfig(ctx, p.UniqueID, candidate)
		return candidate
	}
	return existing
}

func (s *Service) buildAlgorithm(cfg Config) algorithm.Algorithm {
	switch cfg.AlgorithmType {
	case algorithm.TagTokenBucket:
		return algorithm.NewTokenBucket(s.store, s.clock, s.keyPrefix, cfg.Rate, cfg.Capacity)
	case algorithm.TagFixedWindow:
		return algorithm.NewFixedWindow(s.store, s.clock, s.keyPrefix, cfg.MaxRequests, cfg.WindowSize)
	case algorithm.TagSlidingWindow:
		return algorithm.NewSlidingWindow(s.store, s.clock, s.keyPrefix, cfg.MaxRequests, cfg.WindowSize)
	case algorithm.TagLeakyBucket:
		return algorithm.NewLeakyBucket(s.store, s.clock, s.keyPrefix, cfg.Rate, cfg.Capacity)
	case algorithm.TagMultipleBuckets:
		return algorithm.NewMultipleBuckets(s.store, s.clock, s.keyPrefix, cfg.Rate, cfg.Capacity, cfg.MaxRequests, cfg.WindowSize)
	default:
		return nil
	}
}

// Check validates params, resolves (and if needed re-persists) the
// configuration for UniqueID, and dispatches to the configured algorithm.
func (s *Service) Check(ctx context.Context, p CheckParams) (algorithm.Verdict, error) {
	if p.UserID == "" {
		return algorithm.Verdict{}, rlerr.NewValidationError("user_id", "is required")
	}
	if p.ActionType == "" {
		return algorithm.Verdict{}, rlerr.NewValidationError("action_type", "is required")
	}
	if p.UniqueID == "" {
		return algorithm.Verdict{}, rlerr.NewValidationError("unique_id", "is required")
	}
	if !p.AlgorithmType.Valid() {
		return algorithm.Verdict{}, rlerr.NewValidationError("algorithm_type", "must be one of token_bucket, fixed_window, sliding_window, leaky_bucket, multiple_buckets")
	}

	cfg := s.resolveConfig(ctx, p)
	algo := s.buildAlgorithm(cfg)
	key := compositeKey(p.UserID, p.ActionType, p.UniqueID)

	start := s.clock.Now()
	v, err := algo.Check(ctx, key)
	elapsed := time.Duration((s.clock.Now() - start) * float64(time.Second))
	if err != nil {
		s.log.Debug("ratelimit: check failed, failing open", "key", key, "error", err)
		v = algorithm.Verdict{Allowed: true}
		telemetry.ObserveCheck(string(p.AlgorithmType), "rate_ok", elapsed)
		return v, nil
	}
	telemetry.ObserveCheck(string(p.AlgorithmType), string(v.ReasonCode), elapsed)
	return v, nil
}

// Status validates params and reports the current verdict for UniqueID
// without mutating any state. Found is false when UniqueID has never been
// configured.
func (s *Service) Status(ctx context.Context, p StatusParams) (StatusResult, error) {
	if p.UserID == "" {
		return StatusResult{}, rlerr.NewValidationError("user_id", "is required")
	}
	if p.UniqueID == "" {
		return StatusResult{}, rlerr.NewValidationError("unique_id", "is required")
	}

	cfg, ok := s.loadConfig(ctx, p.UniqueID)
	if !ok {
		return StatusResult{Found: false}, nil
	}

	algo := s.buildAlgorithm(cfg)
	key := compositeKey(p.UserID, cfg.ActionType, p.UniqueID)
	v, err := algo.GetStatus(ctx, key)
	if err != nil {
		s.log.Debug("ratelimit: status failed, failing open", "key", key, "error", err)
		return StatusResult{Found: true, Verdict: algorithm.Verdict{Allowed: true}, Config: cfg}, nil
	}
	return StatusResult{Found: true, Verdict: v, Config: cfg}, nil
}

// GetConfig is a read-only diagnostic accessor over the configuration
// registry; it performs no mutation and is not on the Check/Status path.
func (s *Service) GetConfig(ctx context.Context, uniqueID string) (Config, bool) {
	return s.loadConfig(ctx, uniqueID)
}
