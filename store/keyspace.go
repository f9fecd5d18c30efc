// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/kataradb/kataradb/internal/fasttime"
)

// ErrNotInteger is returned by Incr when the existing payload does not
// parse as a signed 64-bit integer.
var ErrNotInteger = errors.New("store: value is not an integer")

// Config configures the keyspace's size bound and eviction strategy.
type Config struct {
	KeysLimit            int     `config:"keysLimit"`
	EvictionPolicy       string  `config:"evictionPolicy"` // "approximate-lru" or "random"
	EvictionRatio        float64 `config:"evictionRatio"`
	EvictionPoolCapacity int     `config:"evictionPoolCapacity"`
	EvictionSampleSize   int     `config:"evictionSampleSize"`
}

// DefaultConfig mirrors the compile-time constants spec.md's reference core
// uses, now config-file-driven defaults instead (see SPEC_FULL.md §5.1).
func DefaultConfig() Config {
	return Config{
		KeysLimit:            10000,
		EvictionPolicy:       "approximate-lru",
		EvictionRatio:        0.1,
		EvictionPoolCapacity: 15,
		EvictionSampleSize:   5,
	}
}

// Keyspace is the mapping name -> Value plus its companion expiration
// table. Single-threaded event-loop access needs no lock; the admin HTTP
// plane (a second goroutine) reads stats concurrently, so every operation
// still takes the guard — the same "process-wide guarded structure, written
// only from the loop thread" model spec.md §5 describes.
type Keyspace struct {
	mu        sync.RWMutex
	entries   map[string]Value
	expiresAt map[string]int64 // unix ms; presence means a finite TTL

	evictor evictor
	cfg     Config

	expiredCount int64 // atomic
	evictedCount int64 // atomic
}

// Stats is a point-in-time snapshot of keyspace counters, rendered by the
// INFO command and the admin HTTP /info route.
type Stats struct {
	Keys    int64
	Expired int64
	Evicted int64
}

func (k *Keyspace) Stats() Stats {
	return Stats{
		Keys:    int64(k.NumberOfKeys()),
		Expired: atomic.LoadInt64(&k.expiredCount),
		Evicted: atomic.LoadInt64(&k.evictedCount),
	}
}

func New(cfg Config) *Keyspace {
	return &Keyspace{
		entries:   make(map[string]Value),
		expiresAt: make(map[string]int64),
		evictor:   newEvictor(cfg),
		cfg:       cfg,
	}
}

// NumberOfKeys reports the live key count. This is always exactly
// len(entries): rather than maintain a separate counter that could drift,
// the invariant is enforced by construction.
func (k *Keyspace) NumberOfKeys() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}

// Put inserts or overwrites key. ttlMs > 0 records a finite TTL; ttlMs <= 0
// ensures the key is persistent (no expiration-table entry).
func (k *Keyspace) Put(key string, payload []byte, ttlMs int64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.entries) >= k.cfg.KeysLimit {
		if _, exists := k.entries[key]; !exists {
			k.evictor.evict(k)
		}
	}

	k.entries[key] = NewValue(payload)
	if ttlMs > 0 {
		k.expiresAt[key] = fasttime.NowMillis() + ttlMs
	} else {
		delete(k.expiresAt, key)
	}
	keysTotal.Set(float64(len(k.entries)))
}

// Get looks up key, lazily expiring it if its TTL has elapsed. A live hit
// touches the access clock, which is why Get takes the write lock even
// though it is logically read-only from the client's point of view.
func (k *Keyspace) Get(key string) (Value, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.expireIfDueLocked(key) {
		return Value{}, false
	}

	v, ok := k.entries[key]
	if !ok {
		return Value{}, false
	}
	v.touch()
	k.entries[key] = v
	return v.Clone(), true
}

// Remove deletes key from both tables.
func (k *Keyspace) Remove(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.removeLocked(key)
}

func (k *Keyspace) removeLocked(key string) bool {
	_, ok := k.entries[key]
	if !ok {
		return false
	}
	delete(k.entries, key)
	delete(k.expiresAt, key)
	keysTotal.Set(float64(len(k.entries)))
	return true
}

// TTLMillisRemaining reports the key's remaining TTL: -1 no TTL, -2 key
// absent (or just lazily expired), else milliseconds remaining.
func (k *Keyspace) TTLMillisRemaining(key string) int64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.expireIfDueLocked(key) {
		return -2
	}
	if _, ok := k.entries[key]; !ok {
		return -2
	}
	deadline, ok := k.expiresAt[key]
	if !ok {
		return -1
	}
	remaining := deadline - fasttime.NowMillis()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expire sets key's TTL to seconds from now, reporting whether the key
// exists to have a TTL set on.
func (k *Keyspace) Expire(key string, seconds int64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.expireIfDueLocked(key) {
		return false
	}
	if _, ok := k.entries[key]; !ok {
		return false
	}
	k.expiresAt[key] = fasttime.NowMillis() + seconds*1000
	return true
}

// Incr parses the key's payload as an int64, adds one, and stores the
// result back (creating the key as "1" if it was absent).
func (k *Keyspace) Incr(key string) (int64, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.expireIfDueLocked(key)

	v, ok := k.entries[key]
	var n int64
	if ok {
		parsed, err := parseInt(v.Payload)
		if err != nil {
			return 0, ErrNotInteger
		}
		n = parsed
	}
	n++

	payload := []byte(formatInt(n))
	k.entries[key] = NewValue(payload)
	keysTotal.Set(float64(len(k.entries)))
	return n, nil
}

// expireIfDueLocked removes key if it carries a TTL that has elapsed.
// Caller must hold k.mu. Reports whether the key was removed.
func (k *Keyspace) expireIfDueLocked(key string) bool {
	deadline, ok := k.expiresAt[key]
	if !ok {
		return false
	}
	if deadline > fasttime.NowMillis() {
		return false
	}
	k.removeLocked(key)
	atomic.AddInt64(&k.expiredCount, 1)
	expiredKeysTotal.Inc()
	return true
}

// RangeTTLKeys calls fn for up to limit keys that carry a TTL, in native
// map iteration order, stopping early if fn returns false. Used by active
// expiration sampling (spec.md §4.5).
func (k *Keyspace) RangeTTLKeys(limit int, fn func(key string) bool) {
	k.mu.RLock()
	keys := make([]string, 0, limit)
	for key := range k.expiresAt {
		keys = append(keys, key)
		if len(keys) >= limit {
			break
		}
	}
	k.mu.RUnlock()

	for _, key := range keys {
		if !fn(key) {
			return
		}
	}
}

// RangeKeys calls fn for every live key, in native map iteration order.
// Used by AOF rewrite (spec.md §4.8).
func (k *Keyspace) RangeKeys(fn func(key string, value Value)) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	for key, v := range k.entries {
		fn(key, v)
	}
}
