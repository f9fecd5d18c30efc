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

package command

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kataradb/kataradb/resp"
	"github.com/kataradb/kataradb/session"
	"github.com/kataradb/kataradb/store"
)

func newTestDispatcher() *Dispatcher {
	ks := store.New(store.DefaultConfig())
	return NewDispatcher(ks, nil)
}

func newTestSession() *session.Session {
	client, _ := net.Pipe()
	return session.New(client, 0)
}

func decodeOne(t *testing.T, raw string) resp.Value {
	t.Helper()
	d := resp.NewDecoder()
	d.Feed([]byte(raw))
	v, ok, err := d.DecodeNext()
	require.NoError(t, err)
	require.True(t, ok)
	return v
}

// The TestScenario* tests cover spec.md §8's end-to-end scenarios S1-S6.
func TestScenarioPing(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	got := d.Dispatch(sess, decodeOne(t, "*1\r\n$4\r\nPING\r\n"))
	assert.Equal(t, resp.SimpleString("PONG"), got)
}

func TestScenarioSetGet(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	got := d.Dispatch(sess, decodeOne(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"))
	assert.Equal(t, resp.SimpleString("OK"), got)

	got = d.Dispatch(sess, decodeOne(t, "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	assert.Equal(t, resp.BulkStringFrom("v"), got)
}

func TestScenarioIncr(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	d.Dispatch(sess, decodeOne(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\n1\r\n"))
	got := d.Dispatch(sess, decodeOne(t, "*2\r\n$4\r\nINCR\r\n$1\r\nk\r\n"))
	assert.Equal(t, resp.Integer(2), got)
	got = d.Dispatch(sess, decodeOne(t, "*2\r\n$4\r\nINCR\r\n$1\r\nk\r\n"))
	assert.Equal(t, resp.Integer(3), got)
	got = d.Dispatch(sess, decodeOne(t, "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	assert.Equal(t, resp.BulkStringFrom("3"), got)
}

func TestScenarioExpireTTLAndMissingGet(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	d.Dispatch(sess, decodeOne(t, "*5\r\n$3\r\nSET\r\n$1\r\na\r\n$1\r\nv\r\n$2\r\nEX\r\n$1\r\n1\r\n"))
	time.Sleep(1100 * time.Millisecond)

	got := d.Dispatch(sess, decodeOne(t, "*2\r\n$3\r\nTTL\r\n$1\r\na\r\n"))
	assert.Equal(t, resp.Integer(-2), got)

	got = d.Dispatch(sess, decodeOne(t, "*2\r\n$3\r\nGET\r\n$1\r\na\r\n"))
	assert.Equal(t, resp.EmptyBulkString(), got)
}

func TestScenarioTransaction(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	assert.Equal(t, resp.SimpleString("OK"), d.Dispatch(sess, decodeOne(t, "*1\r\n$5\r\nMULTI\r\n")))
	assert.Equal(t, resp.SimpleString("QUEUED"), d.Dispatch(sess, decodeOne(t, "*3\r\n$3\r\nSET\r\n$1\r\nx\r\n$1\r\n1\r\n")))
	assert.Equal(t, resp.SimpleString("QUEUED"), d.Dispatch(sess, decodeOne(t, "*3\r\n$3\r\nSET\r\n$1\r\ny\r\n$1\r\n2\r\n")))

	// property 7: no queued command is observed by get() before EXEC. The
	// GET goes through a second session; on sess itself it would be queued.
	got := d.Dispatch(newTestSession(), decodeOne(t, "*2\r\n$3\r\nGET\r\n$1\r\nx\r\n"))
	assert.Equal(t, resp.EmptyBulkString(), got)

	got = d.Dispatch(sess, decodeOne(t, "*1\r\n$4\r\nEXEC\r\n"))
	assert.Equal(t, resp.NewArray([]resp.Value{
		resp.SimpleString("OK"), resp.SimpleString("OK"),
	}), got)
	assert.False(t, sess.TxActive)

	got = d.Dispatch(sess, decodeOne(t, "*2\r\n$3\r\nGET\r\n$1\r\nx\r\n"))
	assert.Equal(t, resp.BulkStringFrom("1"), got)
}

func TestScenarioDiscard(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	d.Dispatch(sess, decodeOne(t, "*1\r\n$5\r\nMULTI\r\n"))
	d.Dispatch(sess, decodeOne(t, "*3\r\n$3\r\nSET\r\n$1\r\nx\r\n$1\r\n1\r\n"))
	got := d.Dispatch(sess, decodeOne(t, "*1\r\n$7\r\nDISCARD\r\n"))
	assert.Equal(t, resp.SimpleString("OK"), got)
	assert.False(t, sess.TxActive)

	got = d.Dispatch(sess, decodeOne(t, "*2\r\n$3\r\nGET\r\n$1\r\nx\r\n"))
	assert.Equal(t, resp.EmptyBulkString(), got)
}

func TestScenarioDel(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	d.Dispatch(sess, decodeOne(t, "*3\r\n$3\r\nSET\r\n$1\r\nb\r\n$1\r\nv\r\n"))
	got := d.Dispatch(sess, decodeOne(t, "*4\r\n$3\r\nDEL\r\n$1\r\na\r\n$1\r\nb\r\n$1\r\nc\r\n"))
	assert.Equal(t, resp.Integer(1), got)
}

func TestNestedMultiRejected(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	d.Dispatch(sess, decodeOne(t, "*1\r\n$5\r\nMULTI\r\n"))
	got := d.Dispatch(sess, decodeOne(t, "*1\r\n$5\r\nMULTI\r\n"))
	assert.Equal(t, resp.KindError, got.Kind)
	assert.True(t, sess.TxActive)
}

func TestUnknownCommandRepliesOK(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	got := d.Dispatch(sess, decodeOne(t, "*1\r\n$8\r\nBOGUSCMD\r\n"))
	assert.Equal(t, resp.SimpleString("OK"), got)
}

func TestWrongArgumentTypeRepliesError(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	// a nested array where a BulkString argument is required
	req := resp.NewArray([]resp.Value{
		resp.BulkStringFrom("SET"),
		resp.NewArray([]resp.Value{resp.Integer(1)}),
	})
	got := d.Dispatch(sess, req)
	assert.Equal(t, resp.KindError, got.Kind)
}

func TestHandleBulkPipelining(t *testing.T) {
	d := newTestDispatcher()
	sess := newTestSession()

	replies, err := d.HandleBulk(sess, []byte(
		"*1\r\n$4\r\nPING\r\n"+
			"*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"+
			"*2\r\n$3\r\nGET\r\n$1\r\nk\r\n",
	))
	require.NoError(t, err)
	require.Len(t, replies, 3)
	assert.Equal(t, resp.SimpleString("PONG"), replies[0])
	assert.Equal(t, resp.SimpleString("OK"), replies[1])
	assert.Equal(t, resp.BulkStringFrom("v"), replies[2])
}
