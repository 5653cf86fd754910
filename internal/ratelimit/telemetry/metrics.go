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

// Package telemetry exposes Prometheus metrics for the rate limiter.
// limiter.Service calls ObserveCheck on every Check call that passes
// validation, and ObserveConfigRepersist whenever a stored configuration is
// overwritten because its parameters changed; registration happens once at
// import time regardless of whether anything ever scrapes /metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	checksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimiter_checks_total",
		Help: "Total Check calls, partitioned by algorithm and outcome reason code",
	}, []string{"algorithm", "reason_code"})

	checkDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ratelimiter_check_duration_seconds",
		Help:    "Latency of Service.Check calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm"})

	configMismatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratelimiter_config_repersists_total",
		Help: "Total times a unique_id's configuration was re-persisted due to a parameter mismatch",
	})
)

func init() {
	prometheus.MustRegister(checksTotal, checkDuration, configMismatchesTotal)
}

// ObserveCheck records the outcome of one Check call.
func ObserveCheck(algorithmType string, reasonCode string, elapsed time.Duration) {
	checksTotal.WithLabelValues(algorithmType, reasonCode).Inc()
	checkDuration.WithLabelValues(algorithmType).Observe(elapsed.Seconds())
}

// ObserveConfigRepersist records a configuration re-persist event.
func ObserveConfigRepersist() {
	configMismatchesTotal.Inc()
}
