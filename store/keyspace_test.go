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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeyspace() *Keyspace {
	cfg := DefaultConfig()
	cfg.KeysLimit = 1000
	return New(cfg)
}

func TestPutGet(t *testing.T) {
	ks := newTestKeyspace()
	ks.Put("k", []byte("v"), 0)

	v, ok := ks.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v.Payload)
	assert.Equal(t, 1, ks.NumberOfKeys())
}

func TestGetMissing(t *testing.T) {
	ks := newTestKeyspace()
	_, ok := ks.Get("missing")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	ks := newTestKeyspace()
	ks.Put("k", []byte("v"), 0)
	assert.True(t, ks.Remove("k"))
	assert.False(t, ks.Remove("k"))
	assert.Equal(t, 0, ks.NumberOfKeys())
}

// TestLazyExpiration covers testable property 5: get(k) after expiry
// returns not-found and the key disappears from both tables.
func TestLazyExpiration(t *testing.T) {
	ks := newTestKeyspace()
	ks.Put("a", []byte("v"), 1) // 1ms TTL
	time.Sleep(5 * time.Millisecond)

	_, ok := ks.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, ks.NumberOfKeys())
	assert.Equal(t, int64(-2), ks.TTLMillisRemaining("a"))
}

func TestTTLMillisRemaining(t *testing.T) {
	ks := newTestKeyspace()
	assert.Equal(t, int64(-2), ks.TTLMillisRemaining("missing"))

	ks.Put("persistent", []byte("v"), 0)
	assert.Equal(t, int64(-1), ks.TTLMillisRemaining("persistent"))

	ks.Put("withttl", []byte("v"), 10000)
	remaining := ks.TTLMillisRemaining("withttl")
	assert.True(t, remaining > 0 && remaining <= 10000)
}

func TestExpire(t *testing.T) {
	ks := newTestKeyspace()
	assert.False(t, ks.Expire("missing", 10))

	ks.Put("k", []byte("v"), 0)
	assert.True(t, ks.Expire("k", 10))
	assert.True(t, ks.TTLMillisRemaining("k") > 0)
}

func TestIncr(t *testing.T) {
	ks := newTestKeyspace()

	n, err := ks.Incr("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = ks.Incr("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ks.Put("notanumber", []byte("abc"), 0)
	_, err = ks.Incr("notanumber")
	assert.ErrorIs(t, err, ErrNotInteger)
}

// TestKeyspaceInvariant covers testable property 4: the expiration table
// is always a subset of the main mapping.
func TestKeyspaceInvariant(t *testing.T) {
	ks := newTestKeyspace()
	ks.Put("a", []byte("1"), 10000)
	ks.Put("b", []byte("2"), 0)
	ks.Remove("a")

	ks.mu.RLock()
	defer ks.mu.RUnlock()
	for key := range ks.expiresAt {
		_, ok := ks.entries[key]
		assert.True(t, ok, "expiration table key %q missing from main mapping", key)
	}
}

func TestValueEncoding(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    byte
	}{
		{"Integer", "12345", EncodingInt},
		{"ShortString", "hello", EncodingEmbstr},
		{"LongString", string(make([]byte, 100)), EncodingRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValue([]byte(tt.payload))
			assert.Equal(t, tt.want, v.Encoding)
		})
	}
}
