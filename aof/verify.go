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

package aof

import (
	"os"

	"github.com/pkg/errors"

	"github.com/kataradb/kataradb/resp"
)

// CountFrames scans a written AOF file and counts its top-level RESP
// values (one Array per SET command): a sanity check that Rewrite wrote
// as many frames as the keyspace had live keys. It decodes through
// resp.Decoder rather than scanning for a leading '*' byte on some
// textual notion of a "line" — AOF payloads are RESP bulk strings and
// spec.md §4.1 requires them to be binary-safe, so a stored value
// containing its own embedded `\n*` bytes must never be mistaken for a
// frame boundary.
func CountFrames(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, "aof: read for verification")
	}

	dec := resp.NewDecoder()
	dec.Feed(data)

	count := 0
	for {
		_, ok, err := dec.DecodeNext()
		if err != nil {
			return 0, errors.Wrap(err, "aof: malformed RESP frame during verification")
		}
		if !ok {
			break
		}
		count++
	}
	if dec.Pending() {
		return 0, errors.New("aof: trailing incomplete frame during verification")
	}
	return count, nil
}

// Verify checks that path contains exactly keyCount SET frames, the
// invariant Rewrite is expected to uphold.
func Verify(path string, keyCount int) error {
	n, err := CountFrames(path)
	if err != nil {
		return err
	}
	if n != keyCount {
		return errors.Errorf("aof: frame count mismatch: file has %d, keyspace has %d", n, keyCount)
	}
	return nil
}
