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

// Package session models per-connection client state: the socket, the
// MULTI/EXEC transaction flag, and the queue of commands awaiting EXEC.
package session

import (
	"net"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/kataradb/kataradb/resp"
)

// Session is created on accept and destroyed on close or peer EOF. A
// session owns its connection; closing the session closes the socket.
type Session struct {
	// ID addresses the session independent of its file descriptor, so it
	// remains stable even if an fd is later reused by the kernel.
	ID uuid.UUID

	Conn net.Conn
	FD   int

	Decoder *resp.Decoder

	// TxActive is the reference spec's is_transaction_active flag.
	TxActive bool
	// Queued holds the raw decoded Array Values accumulated while
	// TxActive, re-dispatched verbatim on EXEC.
	Queued []resp.Value
}

func New(conn net.Conn, fd int) *Session {
	return &Session{
		ID:      uuid.New(),
		Conn:    conn,
		FD:      fd,
		Decoder: resp.NewDecoder(),
	}
}

// NewFD builds a Session directly from an accepted raw file descriptor,
// the path the event loop takes: the listener is a non-blocking raw
// socket (spec.md §4.2), so there is no net.Conn to wrap. Conn is left
// nil; Close falls back to closing FD directly.
func NewFD(fd int) *Session {
	return &Session{
		ID:      uuid.New(),
		FD:      fd,
		Decoder: resp.NewDecoder(),
	}
}

// BeginTransaction switches the session into queueing mode. It reports
// false without changing state if a transaction is already active — nested
// MULTI is left to the caller to turn into an error reply, per spec.md
// §4.4's "implementations SHOULD reply with an error" guidance.
func (s *Session) BeginTransaction() bool {
	if s.TxActive {
		return false
	}
	s.TxActive = true
	s.Queued = nil
	return true
}

// Enqueue appends a raw request to the transaction queue.
func (s *Session) Enqueue(v resp.Value) {
	s.Queued = append(s.Queued, v)
}

// DrainTransaction clears the transaction flag and queue, returning the
// queued requests in FIFO arrival order for EXEC to replay.
func (s *Session) DrainTransaction() []resp.Value {
	queued := s.Queued
	s.TxActive = false
	s.Queued = nil
	return queued
}

// Close closes the underlying connection: through the net.Conn wrapper
// when present (the test/mock path), or directly by FD for a session the
// event loop built from a raw accepted socket.
func (s *Session) Close() error {
	if s.Conn != nil {
		return s.Conn.Close()
	}
	return unix.Close(s.FD)
}
