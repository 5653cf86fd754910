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

// Package reason builds the bilingual, human-readable denial text each
// algorithm attaches to a rejected verdict, plus the closed set of reason
// codes callers can match on.
package reason

import "fmt"

// Code is one of the closed set of reason codes a Verdict may carry.
type Code string

const (
	OK        Code = "rate_ok"
	NoTokens  Code = "rate_no_tokens"
	MaxReq    Code = "rate_max_req"
	Window    Code = "rate_window"
	QueueFull Code = "rate_queue_full"
	Multi     Code = "rate_multi"
)

// FormatWaitTime rounds a duration in seconds to its coarsest human unit:
// seconds below a minute, minutes below an hour, hours below a day, days
// otherwise. English pluralizes the unit when the value isn't exactly 1;
// Chinese units have no plural form.
func FormatWaitTime(seconds int64, lang string) (value int64, unit string) {
	if lang == "cn" {
		switch {
		case seconds < 60:
			return seconds, "秒"
		case seconds < 3600:
			return seconds / 60, "分钟"
		case seconds < 86400:
			return seconds / 3600, "小时"
		default:
			return seconds / 86400, "天"
		}
	}
	switch {
	case seconds < 60:
		return seconds, pluralize(seconds, "second", "seconds")
	case seconds < 3600:
		m := seconds / 60
		return m, pluralize(m, "minute", "minutes")
	case seconds < 86400:
		h := seconds / 3600
		return h, pluralize(h, "hour", "hours")
	default:
		d := seconds / 86400
		return d, pluralize(d, "day", "days")
	}
}

func pluralize(n int64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// TokenBucket formats the token-bucket / multiple-buckets token-branch denial
// text. rate may be fractional (e.g. "10" or "2.5").
func TokenBucket(rate float64, waitSeconds int64) (en, cn string) {
	ve, ue := FormatWaitTime(waitSeconds, "en")
	vc, uc := FormatWaitTime(waitSeconds, "cn")
	en = fmt.Sprintf("System processing capacity is %s requests per second, please try again in %d %s", formatRate(rate), ve, ue)
	cn = fmt.Sprintf("当前系统处理能力为每秒%s个请求，请%d%s后再试", formatRate(rate), vc, uc)
	return en, cn
}

// WindowText formats the fixed-window / sliding-window denial text, shared by
// both algorithms per spec (identical templates).
func WindowText(maxRequests int, windowSize int64, count int, waitSeconds int64) (en, cn string) {
	tve, tue := FormatWaitTime(windowSize, "en")
	tvc, tuc := FormatWaitTime(windowSize, "cn")
	ve, ue := FormatWaitTime(waitSeconds, "en")
	vc, uc := FormatWaitTime(waitSeconds, "cn")
	en = fmt.Sprintf("Maximum %d requests allowed in %d %s, %d used, please try again in %d %s",
		maxRequests, tve, tue, count, ve, ue)
	cn = fmt.Sprintf("当前%d%s内最多允许%d次请求，已使用%d次，请%d%s后再试",
		tvc, tuc, maxRequests, count, vc, uc)
	return en, cn
}

// LeakyBucket formats the leaky-bucket denial text.
func LeakyBucket(rate float64, waitSeconds int64) (en, cn string) {
	ve, ue := FormatWaitTime(waitSeconds, "en")
	vc, uc := FormatWaitTime(waitSeconds, "cn")
	en = fmt.Sprintf("System processing capacity is %s requests per second, queue is full, please try again in %d %s", formatRate(rate), ve, ue)
	cn = fmt.Sprintf("当前系统处理能力为每秒%s个请求，队列已满，请%d%s后再试", formatRate(rate), vc, uc)
	return en, cn
}

// MultipleFallback formats the generic "system busy" denial text used by the
// composite algorithm when no specific sub-limit reason applies.
func MultipleFallback(waitSeconds int64) (en, cn string) {
	ve, ue := FormatWaitTime(waitSeconds, "en")
	vc, uc := FormatWaitTime(waitSeconds, "cn")
	en = fmt.Sprintf("System is busy, please try again in %d %s", ve, ue)
	cn = fmt.Sprintf("系统繁忙，请%d%s后再试", vc, uc)
	return en, cn
}

// formatRate renders a rate without a trailing ".0" for whole numbers, since
// the templates embed it inline ("capacity is %s requests per second").
func formatRate(rate float64) string {
	if rate == float64(int64(rate)) {
		return fmt.Sprintf("%d", int64(rate))
	}
	return fmt.Sprintf("%g", rate)
}
