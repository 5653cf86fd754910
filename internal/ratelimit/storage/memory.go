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

package storage

import (
	"context"
	"sync"
	"time"
)

// entry wraps a stored value with its expiry, matching the {data, expire_at}
// envelope a host-provided KV without native TTL support needs: the host only
// offers untyped put/get/delete, so expiry has to be tracked and enforced here.
type entry struct {
	data     []byte
	expireAt time.Time // zero value means "no expiry"
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !e.expireAt.After(now)
}

// MemoryStore is an in-process Store suitable for standing in for a
// host-provided KV plugin that has no native TTL concept. It is safe for
// concurrent use.
type MemoryStore struct {
	items sync.Map // map[string]entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the value for key if present and not expired. An expired entry
// is deleted on read, mirroring the lazy-eviction behavior of the
// plugin-backed KV this store stands in for.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.items.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if e.expired(time.Now()) {
		m.items.Delete(key)
		return nil, false
	}
	return e.data, true
}

// Set stores value under key with an optional ttl. ttl <= 0 means no expiry.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{data: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	m.items.Store(key, e)
	return nil
}

// Delete removes key unconditionally.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}
