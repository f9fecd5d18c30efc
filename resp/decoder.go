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

package resp

import (
	"strconv"

	"github.com/pkg/errors"
)

// Decoder errors. A caller observing any of these must consider the
// connection desynchronized and close it — the stream can no longer be
// trusted to resume framing correctly.
var (
	ErrUnknownType   = errors.New("resp: unknown type byte")
	ErrInvalidLength = errors.New("resp: invalid length")
	ErrInvalidInt    = errors.New("resp: invalid integer")
)

// errIncomplete is internal: it signals "not enough bytes yet", which is
// not a protocol error and must never escape the package.
var errIncomplete = errors.New("resp: incomplete frame")

// Decoder turns a stream of bytes, fed incrementally as they arrive off a
// non-blocking socket, into RESP2 values.
type Decoder struct {
	buf Buffer
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends bytes read from the connection to the decoder's internal
// buffer. It must be called before DecodeNext/DecodeBulk can see new data.
func (d *Decoder) Feed(p []byte) {
	d.buf.Feed(p)
}

// Pending reports whether bytes are buffered that have not yet formed a
// complete value.
func (d *Decoder) Pending() bool {
	return d.buf.Len() > 0
}

// DecodeNext attempts to assemble one complete RESP value from the buffered
// bytes. ok is false when the buffer holds only a partial frame (or is
// empty) — a would-block outcome, not an error. err is non-nil only for a
// genuine protocol violation, at which point the connection must be closed.
func (d *Decoder) DecodeNext() (v Value, ok bool, err error) {
	if d.buf.Len() == 0 {
		return Value{}, false, nil
	}

	val, consumed, err := decodeValue(&d.buf, 0)
	if err == errIncomplete {
		return Value{}, false, nil
	}
	if err != nil {
		return Value{}, false, err
	}

	d.buf.Advance(consumed)
	return val, true, nil
}

// DecodeBulk drains every fully framed value currently buffered, supporting
// client pipelining: a single readable event may deliver many commands.
// It stops at the first incomplete frame; a non-nil error means the last
// attempt hit a protocol violation and the caller must close the
// connection, but the values already decoded before that point are valid
// and are returned alongside it.
func (d *Decoder) DecodeBulk() ([]Value, error) {
	var out []Value
	for {
		v, ok, err := d.DecodeNext()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func decodeValue(b *Buffer, pos int) (Value, int, error) {
	if pos >= b.Len() {
		return Value{}, 0, errIncomplete
	}

	switch b.data[pos] {
	case '+':
		return decodeLineValue(b, pos, KindSimpleString)
	case '-':
		return decodeLineValue(b, pos, KindError)
	case ':':
		return decodeInteger(b, pos)
	case '$':
		return decodeBulkString(b, pos)
	case '*':
		return decodeArray(b, pos)
	default:
		return Value{}, 0, errors.Wrapf(ErrUnknownType, "byte %q", b.data[pos])
	}
}

func decodeLineValue(b *Buffer, pos int, kind Kind) (Value, int, error) {
	line, next, ok := b.readLine(pos + 1)
	if !ok {
		return Value{}, 0, errIncomplete
	}
	return Value{Kind: kind, Str: string(line)}, next, nil
}

func decodeInteger(b *Buffer, pos int) (Value, int, error) {
	line, next, ok := b.readLine(pos + 1)
	if !ok {
		return Value{}, 0, errIncomplete
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return Value{}, 0, errors.Wrapf(ErrInvalidInt, "%q", line)
	}
	return Integer(n), next, nil
}

func decodeBulkString(b *Buffer, pos int) (Value, int, error) {
	line, next, ok := b.readLine(pos + 1)
	if !ok {
		return Value{}, 0, errIncomplete
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return Value{}, 0, errors.Wrapf(ErrInvalidLength, "%q", line)
	}
	if n < 0 {
		return NullBulkString(), next, nil
	}

	total := next + int(n) + 2
	if b.Len() < total {
		return Value{}, 0, errIncomplete
	}
	payload := make([]byte, n)
	copy(payload, b.data[next:next+int(n)])
	return BulkString(payload), total, nil
}

func decodeArray(b *Buffer, pos int) (Value, int, error) {
	line, next, ok := b.readLine(pos + 1)
	if !ok {
		return Value{}, 0, errIncomplete
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return Value{}, 0, errors.Wrapf(ErrInvalidLength, "%q", line)
	}
	if n < 0 {
		return NullArray(), next, nil
	}

	items := make([]Value, 0, n)
	cur := next
	for i := int64(0); i < n; i++ {
		v, consumed, err := decodeValue(b, cur)
		if err != nil {
			return Value{}, 0, err
		}
		items = append(items, v)
		cur += consumed
	}
	return NewArray(items), cur, nil
}
