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
	"testing"

	"ratelimiter/internal/ratelimit/clock"
	"ratelimiter/internal/ratelimit/reason"
	"ratelimiter/internal/ratelimit/storage"
)

func TestTokenBucket_Burst(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	tb := NewTokenBucket(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 1, 5)

	wantRemaining := []int{4, 3, 2, 1, 0}
	for i, want := range wantRemaining {
		v, err := tb.Check(ctx, "u:a:c")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if !v.Allowed || v.Remaining != want {
			t.Fatalf("check %d = allowed=%v remaining=%d; want allowed=true remaining=%d", i, v.Allowed, v.Remaining, want)
		}
	}
	v, _ := tb.Check(ctx, "u:a:c")
	if v.Allowed || v.ReasonCode != reason.NoTokens {
		t.Fatalf("6th check = %+v; want denied rate_no_tokens", v)
	}
}

func TestTokenBucket_Recovery(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	tb := NewTokenBucket(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 1, 5)
	for i := 0; i < 6; i++ {
		_, _ = tb.Check(ctx, "u:a:c")
	}
	mc.Set(2.1)
	v, _ := tb.Check(ctx, "u:a:c")
	if !v.Allowed {
		t.Fatalf("expected recovery admit at t=2.1, got %+v", v)
	}
}

func TestFixedWindow_Boundary(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(9.9)
	fw := NewFixedWindow(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 2, 10)

	if v, _ := fw.Check(ctx, "k"); !v.Allowed {
		t.Fatalf("t=9.9 expected allowed, got %+v", v)
	}
	mc.Set(9.95)
	if v, _ := fw.Check(ctx, "k"); !v.Allowed {
		t.Fatalf("t=9.95 expected allowed, got %+v", v)
	}
	mc.Set(10.01)
	if v, _ := fw.Check(ctx, "k"); !v.Allowed {
		t.Fatalf("t=10.01 expected allowed (new window), got %+v", v)
	}
	mc.Set(10.02)
	if v, _ := fw.Check(ctx, "k"); !v.Allowed {
		t.Fatalf("t=10.02 expected allowed, got %+v", v)
	}
	mc.Set(10.03)
	v, _ := fw.Check(ctx, "k")
	if v.Allowed || v.ReasonCode != reason.MaxReq {
		t.Fatalf("t=10.03 expected denied rate_max_req, got %+v", v)
	}
}

func TestSlidingWindow_Smoothness(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	sw := NewSlidingWindow(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 2, 10)

	if v, _ := sw.Check(ctx, "k"); !v.Allowed {
		t.Fatalf("t=0 expected allowed, got %+v", v)
	}
	mc.Set(5)
	if v, _ := sw.Check(ctx, "k"); !v.Allowed {
		t.Fatalf("t=5 expected allowed, got %+v", v)
	}
	mc.Set(9)
	v, _ := sw.Check(ctx, "k")
	if v.Allowed || v.ReasonCode != reason.Window {
		t.Fatalf("t=9 expected denied rate_window, got %+v", v)
	}
	mc.Set(10.01)
	v, _ = sw.Check(ctx, "k")
	if !v.Allowed {
		t.Fatalf("t=10.01 expected allowed (sample aged out), got %+v", v)
	}
}

func TestLeakyBucket_Saturation(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	lb := NewLeakyBucket(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 1, 3)

	for i := 0; i < 3; i++ {
		if v, _ := lb.Check(ctx, "k"); !v.Allowed {
			t.Fatalf("admit %d expected allowed, got %+v", i, v)
		}
	}
	v, _ := lb.Check(ctx, "k")
	if v.Allowed || v.ReasonCode != reason.QueueFull {
		t.Fatalf("4th admit expected denied rate_queue_full, got %+v", v)
	}
	mc.Set(1.1)
	v, _ = lb.Check(ctx, "k")
	if !v.Allowed {
		t.Fatalf("t=1.1 expected allowed after leak, got %+v", v)
	}
}

func TestMultipleBuckets_DenialSelectsTokenBranch(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	mb := NewMultipleBuckets(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 10, 2, 100, 60)

	for i := 0; i < 2; i++ {
		if v, _ := mb.Check(ctx, "k"); !v.Allowed {
			t.Fatalf("admit %d expected allowed, got %+v", i, v)
		}
	}
	v, _ := mb.Check(ctx, "k")
	if v.Allowed || v.ReasonCode != reason.Multi {
		t.Fatalf("3rd check expected denied rate_multi, got %+v", v)
	}
	wantPrefix := "System processing capacity is 10 requests per second"
	if len(v.Reason) < len(wantPrefix) || v.Reason[:len(wantPrefix)] != wantPrefix {
		t.Fatalf("expected token-bucket-derived reason text, got %q", v.Reason)
	}
}

func TestGetStatus_IsPure(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	tb := NewTokenBucket(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 1, 5)

	a, _ := tb.GetStatus(ctx, "k")
	b, _ := tb.GetStatus(ctx, "k")
	c, _ := tb.GetStatus(ctx, "k")
	if a.Remaining != b.Remaining || b.Remaining != c.Remaining || a.Allowed != c.Allowed {
		t.Fatalf("repeated GetStatus must be idempotent, got %+v %+v %+v", a, b, c)
	}
}

func TestIsolation_AcrossCompositeKeys(t *testing.T) {
	ctx := context.Background()
	mc := clock.NewMock(0)
	tb := NewTokenBucket(storage.NewMemoryStore(), mc, "safety_chat:rate_limiter", 1, 1)

	v1, _ := tb.Check(ctx, "userA:chat:cfg1")
	if !v1.Allowed {
		t.Fatalf("first check for userA should be allowed")
	}
	v2, _ := tb.Check(ctx, "userB:chat:cfg1")
	if !v2.Allowed {
		t.Fatalf("different user must have independent state, got %+v", v2)
	}
}
