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

// Package store implements the in-memory keyspace: typed/encoded values,
// lazy and active TTL expiration, and approximate-LRU / random eviction.
package store

import (
	"strconv"

	"github.com/kataradb/kataradb/internal/fasttime"
)

// typeString is the only Type this design stores; the high nibble of
// Encoding is reserved for future Value types (lists, hashes, ...).
const typeString byte = 0

// Sub-encodings, the low nibble of Encoding.
const (
	EncodingRaw    byte = 0
	EncodingInt    byte = 1
	EncodingEmbstr byte = 8

	embstrMaxLen = 44
)

// Value is a keyspace entry's payload: the binary-safe bytes plus the
// encoding byte that records how it was stored and the access clock LRU
// sampling reads.
type Value struct {
	Encoding       byte
	Payload        []byte
	LastAccessedAt uint32
}

// NewValue builds a Value from raw bytes, computing its encoding the way
// object_type_encoding.rs does: INT takes priority when the payload parses
// as a signed 64-bit integer, else EMBSTR below the 44-byte threshold, else
// RAW.
func NewValue(payload []byte) Value {
	return Value{
		Encoding:       computeEncoding(payload),
		Payload:        payload,
		LastAccessedAt: fasttime.AccessClock(),
	}
}

func computeEncoding(payload []byte) byte {
	if _, err := strconv.ParseInt(string(payload), 10, 64); err == nil {
		return typeString<<4 | EncodingInt
	}
	if len(payload) < embstrMaxLen {
		return typeString<<4 | EncodingEmbstr
	}
	return typeString<<4 | EncodingRaw
}

// touch updates the access clock, as every successful read must (spec:
// get() is logically read-only but physically mutates the access clock).
func (v *Value) touch() {
	v.LastAccessedAt = fasttime.AccessClock()
}

// Clone returns a value copy safe to hand back to a caller without sharing
// the backing payload slice with the stored entry.
func (v Value) Clone() Value {
	payload := append([]byte(nil), v.Payload...)
	return Value{Encoding: v.Encoding, Payload: payload, LastAccessedAt: v.LastAccessedAt}
}

func parseInt(payload []byte) (int64, error) {
	return strconv.ParseInt(string(payload), 10, 64)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
