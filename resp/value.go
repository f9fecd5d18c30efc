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

// Package resp implements the RESP2 (REdis Serialization Protocol) wire
// format: a binary-safe streaming decoder and encoder over the five value
// kinds the protocol defines.
package resp

import "fmt"

// Kind identifies which of the five RESP2 value variants a Value holds.
type Kind uint8

const (
	KindSimpleString Kind = iota
	KindError
	KindInteger
	KindBulkString
	KindArray
)

// Value is the RESP2 sum type: SimpleString | Error | Integer | BulkString |
// Array. Only the fields matching Kind are meaningful; the rest are zero.
//
// BulkString and Array both carry a Null flag: a negative-length bulk string
// or array on the wire ($-1 / *-1) decodes to the corresponding Null value
// rather than an empty one, per the RESP2 NULL convention.
type Value struct {
	Kind  Kind
	Str   string  // SimpleString, Error
	Int   int64   // Integer
	Bulk  []byte  // BulkString payload, nil when Null
	Array []Value // Array elements, nil when Null
	Null  bool    // BulkString / Array only
}

func SimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: s}
}

func Error(s string) Value {
	return Value{Kind: KindError, Str: s}
}

func Errorf(format string, args ...any) Value {
	return Value{Kind: KindError, Str: fmt.Sprintf(format, args...)}
}

func Integer(i int64) Value {
	return Value{Kind: KindInteger, Int: i}
}

func BulkString(b []byte) Value {
	return Value{Kind: KindBulkString, Bulk: b}
}

// BulkStringFrom wraps a string as a bulk string without a copy-back
// conversion concern at the call site.
func BulkStringFrom(s string) Value {
	return Value{Kind: KindBulkString, Bulk: []byte(s)}
}

// EmptyBulkString is the literal `$0\r\n\r\n` reply this design uses for a
// missing GET target (see spec design notes: Redis compatibility would use
// NullBulkString instead).
func EmptyBulkString() Value {
	return Value{Kind: KindBulkString, Bulk: []byte{}}
}

func NullBulkString() Value {
	return Value{Kind: KindBulkString, Null: true}
}

func NewArray(items []Value) Value {
	return Value{Kind: KindArray, Array: items}
}

func NullArray() Value {
	return Value{Kind: KindArray, Null: true}
}

// IsNull reports whether v is a null bulk string or null array.
func (v Value) IsNull() bool {
	return (v.Kind == KindBulkString || v.Kind == KindArray) && v.Null
}
