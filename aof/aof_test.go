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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataradb/kataradb/resp"
	"github.com/kataradb/kataradb/store"
)

func TestRewriteProducesValidRESPStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kataradb.aof")

	ks := store.New(store.DefaultConfig())
	ks.Put("k", []byte("v"), 0)

	a := New(Config{Path: path})
	require.NoError(t, a.Rewrite(ks))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	d := resp.NewDecoder()
	d.Feed(data)
	values, err := d.DecodeBulk()
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, resp.NewArray([]resp.Value{
		resp.BulkStringFrom("SET"), resp.BulkStringFrom("k"), resp.BulkStringFrom("v"),
	}), values[0])
}

func TestRewriteEmptyKeyspace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kataradb.aof")

	ks := store.New(store.DefaultConfig())
	a := New(Config{Path: path})
	require.NoError(t, a.Rewrite(ks))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
