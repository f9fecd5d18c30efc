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

import "github.com/kataradb/kataradb/internal/fasttime"

// ExpirationConfig parameterizes the active-expiration cron gate.
type ExpirationConfig struct {
	CronIntervalMs int64   `config:"cronIntervalMs"`
	SampleSize     int     `config:"sampleSize"`
	TriggerRatio   float64 `config:"triggerRatio"`
}

func DefaultExpirationConfig() ExpirationConfig {
	return ExpirationConfig{CronIntervalMs: 3000, SampleSize: 20, TriggerRatio: 0.25}
}

// ActiveExpirer runs spec.md §4.5's periodic sampling sweep: inline with
// the event loop, gated by a wall-clock interval rather than its own
// goroutine, so it never competes with the loop for the keyspace lock at
// an unpredictable moment.
type ActiveExpirer struct {
	cfg      ExpirationConfig
	lastTick int64
}

func NewActiveExpirer(cfg ExpirationConfig) *ActiveExpirer {
	return &ActiveExpirer{cfg: cfg}
}

// Tick runs one gated expiration pass against ks, approximating Redis's
// activeExpireCycle: sample up to SampleSize TTL-carrying keys, delete the
// expired ones, and repeat immediately while the deleted ratio stays above
// TriggerRatio (bounded progress — the ratio test terminates once dense
// expirations are cleared).
func (e *ActiveExpirer) Tick(ks *Keyspace) {
	now := fasttime.NowMillis()
	if now-e.lastTick < e.cfg.CronIntervalMs {
		return
	}
	e.lastTick = now

	for {
		sampled, deleted := e.sweep(ks)
		if sampled == 0 {
			return
		}
		if float64(deleted)/float64(sampled) <= e.cfg.TriggerRatio {
			return
		}
	}
}

func (e *ActiveExpirer) sweep(ks *Keyspace) (sampled, deleted int) {
	ks.RangeTTLKeys(e.cfg.SampleSize, func(key string) bool {
		sampled++
		ks.mu.Lock()
		if ks.expireIfDueLocked(key) {
			deleted++
		}
		ks.mu.Unlock()
		return true
	})
	return sampled, deleted
}
