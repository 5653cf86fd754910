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

import "ratelimiter/internal/ratelimit/algorithm"

// Config is the configuration record persisted under "config:<unique_id>":
// the algorithm a unique_id is bound to, plus its numeric parameters. Only
// the fields relevant to AlgorithmType are meaningful; the rest ride along
// unused in a single flat record rather than a union type.
type Config struct {
	ActionType    string        `json:"action_type"`
	AlgorithmType algorithm.Tag `json:"algorithm_type"`
	Rate          float64       `json:"rate"`
	Capacity      float64       `json:"capacity"`
	MaxRequests   int           `json:"max_requests"`
	WindowSize    int64         `json:"window_size"`
}

// equalParams reports whether two configs agree on every field the limiter
// re-persists on mismatch.
func (c Config) equalParams(o Config) bool {
	return c.ActionType == o.ActionType &&
		c.AlgorithmType == o.AlgorithmType &&
		c.Rate == o.Rate &&
		c.Capacity == o.Capacity &&
		c.MaxRequests == o.MaxRequests &&
		c.WindowSize == o.WindowSize
}

// defaultParams fills in the documented per-algorithm defaults for any field
// left unset by the caller.
func defaultParams(tag algorithm.Tag, rate, capacity *float64, maxRequests *int, windowSize *int64) (r, c float64, mr int, ws int64) {
	switch tag {
	case algorithm.TagTokenBucket, algorithm.TagLeakyBucket:
		r, c = 10, 100
	case algorithm.TagFixedWindow, algorithm.TagSlidingWindow:
		mr, ws = 100, 60
	case algorithm.TagMultipleBuckets:
		r, c, mr, ws = 10, 100, 1000, 3600
	}
	if rate != nil {
		r = *rate
	}
	if capacity != nil {
		c = *capacity
	}
	if maxRequests != nil {
		mr = *maxRequests
	}
	if windowSize != nil {
		ws = *windowSize
	}
	return r, c, mr, ws
}
