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

import "bytes"

// Buffer accumulates bytes read off a non-blocking socket across however
// many reads it takes for a complete RESP frame to arrive, and yields
// exactly the bytes a frame consumed once it is whole.
//
// readLine never treats "no terminator found yet" as "line ends here": it
// only returns a line once it has actually seen a `\n`, so a frame split
// across reads waits for more data instead of being misread as complete.
type Buffer struct {
	data []byte
}

// Feed appends newly read bytes to the buffer.
func (b *Buffer) Feed(p []byte) {
	b.data = append(b.data, p...)
}

// Len reports how many unconsumed bytes remain buffered.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Advance discards the first n bytes, which a caller has already decoded.
func (b *Buffer) Advance(n int) {
	b.data = b.data[n:]
}

// readLine scans for a line terminated by `\n` (tolerating a preceding
// `\r`) starting at pos. It reports ok=false, making no assumption about
// completeness, when no terminator has arrived yet.
func (b *Buffer) readLine(pos int) (line []byte, next int, ok bool) {
	idx := bytes.IndexByte(b.data[pos:], '\n')
	if idx == -1 {
		return nil, 0, false
	}
	end := pos + idx
	line = b.data[pos:end]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line, end + 1, true
}
