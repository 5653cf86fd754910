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

// Package main is the entry point for the rate limiter demo: it wires a
// limiter.Service over an in-memory or Redis store and drives it directly
// with a short scripted traffic pattern, printing each verdict as it comes
// back. There is no HTTP request layer here; the only network listener is
// the optional Prometheus /metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ratelimiter/internal/ratelimit/algorithm"
	"ratelimiter/internal/ratelimit/clock"
	"ratelimiter/internal/ratelimit/limiter"
	"ratelimiter/internal/ratelimit/storage"
)

func main() {
	storageBackend := flag.String("storage", "memory", "storage backend: memory or redis")
	redisAddr := flag.String("redis_addr", "localhost:6379", "address of the Redis backend, used when -storage=redis")
	keyPrefix := flag.String("key_prefix", limiter.DefaultKeyPrefix, "storage key namespace root")
	metricsAddr := flag.String("metrics_addr", ":9090", "Prometheus /metrics listen address; empty disables it")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var store storage.Store
	switch *storageBackend {
	case "memory":
		store = storage.NewMemoryStore()
	case "redis":
		store = storage.NewRedisStoreAddr(*redisAddr)
	default:
		log.Error("unknown storage backend", "storage", *storageBackend)
		os.Exit(1)
	}

	svc := limiter.NewService(store, clock.Real{}, *keyPrefix)

	var metricsServer *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			log.Info("metrics listening", "addr", *metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		runDemo(svc, log)
		close(done)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-done:
	case <-stop:
		log.Info("interrupted")
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Error("metrics shutdown failed", "error", err)
		}
	}
}

// runDemo drives svc directly with a handful of users and algorithms,
// printing each verdict as it's returned.
func runDemo(svc *limiter.Service, log *slog.Logger) {
	ctx := context.Background()
	rate := 2.0
	capacity := 5.0

	requests := []limiter.CheckParams{
		{UserID: "alice", ActionType: "chat_message", UniqueID: "chat_token_bucket", AlgorithmType: algorithm.TagTokenBucket, Rate: &rate, Capacity: &capacity},
		{UserID: "alice", ActionType: "chat_message", UniqueID: "chat_token_bucket", AlgorithmType: algorithm.TagTokenBucket, Rate: &rate, Capacity: &capacity},
		{UserID: "alice", ActionType: "chat_message", UniqueID: "chat_token_bucket", AlgorithmType: algorithm.TagTokenBucket, Rate: &rate, Capacity: &capacity},
		{UserID: "bob", ActionType: "image_upload", UniqueID: "upload_fixed_window", AlgorithmType: algorithm.TagFixedWindow},
		{UserID: "bob", ActionType: "image_upload", UniqueID: "upload_fixed_window", AlgorithmType: algorithm.TagFixedWindow},
	}

	for i, req := range requests {
		v, err := svc.Check(ctx, req)
		if err != nil {
			log.Warn("check rejected", "index", i, "user_id", req.UserID, "unique_id", req.UniqueID, "error", err)
			continue
		}
		fmt.Printf("check %d: user=%s unique_id=%s allowed=%v remaining=%d reason=%q\n",
			i, req.UserID, req.UniqueID, v.Allowed, v.Remaining, v.Reason)
	}

	status, err := svc.Status(ctx, limiter.StatusParams{UserID: "alice", UniqueID: "chat_token_bucket"})
	if err != nil {
		log.Warn("status rejected", "error", err)
		return
	}
	fmt.Printf("status: user=alice unique_id=chat_token_bucket allowed=%v remaining=%d\n", status.Verdict.Allowed, status.Verdict.Remaining)
}
