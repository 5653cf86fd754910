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

package limiter

import (
	"context"
	"testing"

	"ratelimiter/internal/ratelimit/algorithm"
	"ratelimiter/internal/ratelimit/clock"
	"ratelimiter/internal/ratelimit/rlerr"
	"ratelimiter/internal/ratelimit/storage"
)

func newTestService() *Service {
	return NewService(storage.NewMemoryStore(), clock.NewMock(0), "")
}

func TestService_Check_ValidatesRequiredFields(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Check(ctx, CheckParams{ActionType: "chat", AlgorithmType: algorithm.TagTokenBucket})
	if _, ok := err.(*rlerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for missing user_id, got %v", err)
	}

	_, err = s.Check(ctx, CheckParams{UserID: "u1", AlgorithmType: algorithm.TagTokenBucket})
	if _, ok := err.(*rlerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for missing action_type, got %v", err)
	}

	_, err = s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg1", AlgorithmType: "not_a_real_algorithm"})
	if _, ok := err.(*rlerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for unknown algorithm_type, got %v", err)
	}

	_, err = s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", AlgorithmType: algorithm.TagTokenBucket})
	if _, ok := err.(*rlerr.ValidationError); !ok {
		t.Fatalf("expected ValidationError for missing unique_id, got %v", err)
	}
}

func TestService_Check_UsesDefaultsAndPersistsConfig(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	v, err := s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg1", AlgorithmType: algorithm.TagTokenBucket})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !v.Allowed {
		t.Fatalf("expected first check allowed, got %+v", v)
	}

	cfg, ok := s.GetConfig(ctx, "cfg1")
	if !ok {
		t.Fatalf("expected config to be persisted")
	}
	if cfg.Rate != 10 || cfg.Capacity != 100 {
		t.Fatalf("expected default token bucket params, got %+v", cfg)
	}
}

func TestService_Check_RepersistsOnParamMismatch(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	rate1 := 5.0
	_, err := s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg1", AlgorithmType: algorithm.TagTokenBucket, Rate: &rate1})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	cfg1, _ := s.GetConfig(ctx, "cfg1")
	if cfg1.Rate != 5 {
		t.Fatalf("expected rate=5, got %+v", cfg1)
	}

	rate2 := 7.0
	_, err = s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg1", AlgorithmType: algorithm.TagTokenBucket, Rate: &rate2})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	cfg2, _ := s.GetConfig(ctx, "cfg1")
	if cfg2.Rate != 7 {
		t.Fatalf("expected config to be re-persisted with rate=7, got %+v", cfg2)
	}
}

func TestService_Status_InformationalWhenUnconfigured(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	res, err := s.Status(ctx, StatusParams{UserID: "u1", UniqueID: "never-configured"})
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if res.Found {
		t.Fatalf("expected Found=false for unconfigured unique_id, got %+v", res)
	}
}

func TestService_Status_IsPure(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg1", AlgorithmType: algorithm.TagFixedWindow})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}

	r1, _ := s.Status(ctx, StatusParams{UserID: "u1", UniqueID: "cfg1"})
	r2, _ := s.Status(ctx, StatusParams{UserID: "u1", UniqueID: "cfg1"})
	if r1.Verdict.Remaining != r2.Verdict.Remaining {
		t.Fatalf("Status must not mutate state: got %d then %d", r1.Verdict.Remaining, r2.Verdict.Remaining)
	}
}

func TestService_Isolation_DifferentUniqueIDsDontShareConfig(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	rate := 1.0
	_, _ = s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg1", AlgorithmType: algorithm.TagTokenBucket, Rate: &rate})
	_, _ = s.Check(ctx, CheckParams{UserID: "u1", ActionType: "chat", UniqueID: "cfg2", AlgorithmType: algorithm.TagTokenBucket})

	cfg1, _ := s.GetConfig(ctx, "cfg1")
	cfg2, _ := s.GetConfig(ctx, "cfg2")
	if cfg1.Rate == cfg2.Rate {
		t.Fatalf("expected distinct configs, both had rate=%v", cfg1.Rate)
	}
}
