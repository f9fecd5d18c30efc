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
	"math/rand"
	"sort"
	"sync/atomic"
)

// evictor selects and removes victims when the keyspace exceeds its soft
// limit. Evict runs with k.mu already held for writing (called from
// Put), so it operates on k.entries/k.expiresAt directly, taking no lock
// of its own.
type evictor interface {
	evict(k *Keyspace)
}

func newEvictor(cfg Config) evictor {
	if cfg.EvictionPolicy == "random" {
		return &randomEvictor{ratio: cfg.EvictionRatio}
	}
	return newLRUEvictor(cfg.EvictionPoolCapacity, cfg.EvictionSampleSize)
}

// randomEvictor is AllKeysRandom: select keys_limit*eviction_ratio keys in
// iteration order and delete them. A simple upper bound on RAM.
type randomEvictor struct {
	ratio float64
}

func (e *randomEvictor) evict(k *Keyspace) {
	n := int(float64(k.cfg.KeysLimit) * e.ratio)
	if n <= 0 {
		return
	}
	victims := make([]string, 0, n)
	for key := range k.entries {
		victims = append(victims, key)
		if len(victims) >= n {
			break
		}
	}
	for _, key := range victims {
		delete(k.entries, key)
		delete(k.expiresAt, key)
		atomic.AddInt64(&k.evictedCount, 1)
		evictedKeysTotal.Inc()
	}
}

// poolEntry is one candidate held in the LRU eviction pool.
type poolEntry struct {
	key            string
	lastAccessedAt uint32
}

// lruEvictor is AllKeysApproximateLRU: a small bounded pool of candidates,
// refreshed across invocations, sorted ascending by access clock so the
// front of the pool is always the globally-oldest candidate seen so far.
type lruEvictor struct {
	poolCapacity int
	sampleSize   int
	pool         []poolEntry
}

func newLRUEvictor(poolCapacity, sampleSize int) *lruEvictor {
	if poolCapacity <= 0 {
		poolCapacity = 15
	}
	if sampleSize <= 0 {
		sampleSize = 5
	}
	return &lruEvictor{poolCapacity: poolCapacity, sampleSize: sampleSize}
}

func (e *lruEvictor) evict(k *Keyspace) {
	e.refillPool(k)

	keysToRemove := int(float64(k.cfg.KeysLimit)*k.cfg.EvictionRatio) + 1
	if keysToRemove > len(e.pool) {
		keysToRemove = len(e.pool)
	}
	for i := 0; i < keysToRemove; i++ {
		key := e.pool[i].key
		if _, ok := k.entries[key]; ok {
			delete(k.entries, key)
			delete(k.expiresAt, key)
			atomic.AddInt64(&k.evictedCount, 1)
			evictedKeysTotal.Inc()
		}
	}
	e.pool = e.pool[keysToRemove:]
}

// refillPool samples sampleSize random keys from the store and folds each
// into the pool: if the pool has room the sample is simply added; once
// full, a sample replaces the pool's current oldest entry only if the
// sample is itself older, so the pool's freshness improves monotonically.
func (e *lruEvictor) refillPool(k *Keyspace) {
	sortPool := func() {
		sort.Slice(e.pool, func(i, j int) bool {
			return e.pool[i].lastAccessedAt < e.pool[j].lastAccessedAt
		})
	}

	for _, key := range sampleKeys(k.entries, e.sampleSize) {
		v := k.entries[key]
		sample := poolEntry{key: key, lastAccessedAt: v.LastAccessedAt}

		if len(e.pool) < e.poolCapacity {
			e.pool = append(e.pool, sample)
			sortPool()
			continue
		}
		if sample.lastAccessedAt < e.pool[0].lastAccessedAt {
			e.pool[0] = sample
			sortPool()
		}
	}
}

// sampleKeys returns up to n keys picked pseudo-randomly from m, using Go's
// native map iteration order (itself randomized per run) as the source of
// randomness rather than maintaining a separate index structure.
func sampleKeys(m map[string]Value, n int) []string {
	if n > len(m) {
		n = len(m)
	}
	out := make([]string, 0, n)
	for key := range m {
		out = append(out, key)
		if len(out) >= n {
			break
		}
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
