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

package controller

import (
	"bufio"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kataradb/kataradb/aof"
	"github.com/kataradb/kataradb/command"
	"github.com/kataradb/kataradb/store"
)

// boundAddr returns the actual "host:port" a freshly-created, not-yet-run
// event loop bound to, after asking the kernel for an ephemeral port.
func boundAddr(t *testing.T, l *eventLoop) string {
	t.Helper()
	sa, err := unix.Getsockname(l.listenerFD)
	require.NoError(t, err)
	sa4, ok := sa.(*unix.SockaddrInet4)
	require.True(t, ok)
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(sa4.Port))
}

func newTestLoop(t *testing.T) *eventLoop {
	t.Helper()
	ks := store.New(store.DefaultConfig())
	d := command.NewDispatcher(ks, aof.New(aof.Config{Path: t.TempDir() + "/test.aof"}))

	cfg := LoopConfig{Address: "127.0.0.1:0", MaxConnections: 16}
	l, err := newEventLoop(cfg, d, store.DefaultExpirationConfig())
	require.NoError(t, err)
	t.Cleanup(l.stop)
	return l
}

func TestEventLoopServesPingOverTCP(t *testing.T) {
	l := newTestLoop(t)
	addr := boundAddr(t, l)
	go l.run()

	var conn net.Conn
	var err error
	require.Eventually(t, func() bool {
		conn, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	_, err = conn.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", reply)
}

func TestEventLoopSetAndGetRoundtrip(t *testing.T) {
	l := newTestLoop(t)
	addr := boundAddr(t, l)
	go l.run()

	var conn net.Conn
	var err error
	require.Eventually(t, func() bool {
		conn, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer conn.Close()

	_, err = conn.Write([]byte("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	br := bufio.NewReader(conn)
	line, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)

	_, err = conn.Write([]byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	require.NoError(t, err)
	header, err := br.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "$1\r\n", header)
}
