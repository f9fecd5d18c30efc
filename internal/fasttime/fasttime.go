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

package fasttime

import (
	"sync/atomic"
	"time"
)

func init() {
	go func() {
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for tm := range ticker.C {
			atomic.StoreInt64(&currentMillis, tm.UnixMilli())
		}
	}()
}

var currentMillis = time.Now().UnixMilli()

// UnixTimestamp 获取当前 unix 时间戳 性能更快
func UnixTimestamp() int64 {
	return atomic.LoadInt64(&currentMillis) / 1000
}

// NowMillis returns the current unix time in milliseconds, refreshed by a
// background ticker instead of a time.Now() syscall on every call.
func NowMillis() int64 {
	return atomic.LoadInt64(&currentMillis)
}

// AccessClock returns NowMillis truncated to 32 bits, the per-key access
// timestamp approximate-LRU sampling compares. Wrap-around is tolerated:
// eviction only ever compares clock values within one short sampling
// window, never across a full wrap.
func AccessClock() uint32 {
	return uint32(NowMillis())
}
