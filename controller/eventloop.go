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
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/kataradb/kataradb/command"
	"github.com/kataradb/kataradb/common"
	"github.com/kataradb/kataradb/internal/netpoll"
	"github.com/kataradb/kataradb/internal/rescue"
	"github.com/kataradb/kataradb/logger"
	"github.com/kataradb/kataradb/resp"
	"github.com/kataradb/kataradb/session"
	"github.com/kataradb/kataradb/store"
)

// LoopConfig parameterizes the event loop's network surface (spec.md §6).
type LoopConfig struct {
	Address        string `config:"address"`
	MaxConnections int    `config:"maxConnections"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{Address: "127.0.0.1:9977", MaxConnections: 1024}
}

// eventLoop is spec.md §4.3: a single thread that never blocks
// indefinitely on I/O. One iteration, in order: check for shutdown, run
// active expiration, poll the multiplexer, dispatch whatever is ready.
type eventLoop struct {
	cfg        LoopConfig
	poller     netpoll.Poller
	listenerFD int

	dispatcher *command.Dispatcher
	expirer    *store.ActiveExpirer

	sessions map[int]*session.Session
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func newEventLoop(cfg LoopConfig, d *command.Dispatcher, expCfg store.ExpirationConfig) (*eventLoop, error) {
	poller, err := netpoll.New()
	if err != nil {
		return nil, err
	}

	fd, err := listen(cfg.Address)
	if err != nil {
		poller.Close()
		return nil, err
	}
	if err := poller.Register(fd); err != nil {
		poller.Close()
		unix.Close(fd)
		return nil, errors.Wrap(err, "eventloop: register listener")
	}

	logger.Infof("event loop listening on %s", cfg.Address)
	return &eventLoop{
		cfg:        cfg,
		poller:     poller,
		listenerFD: fd,
		dispatcher: d,
		expirer:    store.NewActiveExpirer(expCfg),
		sessions:   make(map[int]*session.Session),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// run is the loop itself. It returns once stop has been requested and
// cleanup (closing the multiplexer; BGREWRITEAOF is the caller's job, see
// controller.Stop) has completed.
func (l *eventLoop) run() {
	defer close(l.doneCh)

	raw := make([]byte, common.ReadWriteBlockSize)
	for {
		select {
		case <-l.stopCh:
			l.cleanup()
			return
		default:
		}

		l.expirer.Tick(l.dispatcher.Keyspace)

		events, err := l.poller.Poll(0)
		if err != nil {
			logger.Errorf("event loop: poll failed: %v", err)
			continue
		}

		if len(events) == 0 {
			time.Sleep(time.Millisecond)
			continue
		}

		for _, ev := range events {
			if ev.FD == l.listenerFD {
				l.acceptNew()
				continue
			}
			l.handleClient(ev, raw)
		}
	}
}

func (l *eventLoop) stop() {
	close(l.stopCh)
	<-l.doneCh
}

func (l *eventLoop) cleanup() {
	for fd, sess := range l.sessions {
		sess.Close()
		delete(l.sessions, fd)
	}
	l.poller.Close()
}

// acceptNew drains every pending connection on the listener (it may report
// more than one per poll batch) up to MaxConnections.
func (l *eventLoop) acceptNew() {
	for {
		if l.cfg.MaxConnections > 0 && len(l.sessions) >= l.cfg.MaxConnections {
			return
		}

		fd, ok, err := acceptOne(l.listenerFD)
		if err != nil {
			logger.Errorf("event loop: accept failed: %v", err)
			return
		}
		if !ok {
			return
		}

		if err := l.poller.Register(fd); err != nil {
			logger.Errorf("event loop: register client fd=%d failed: %v", fd, err)
			unix.Close(fd)
			continue
		}

		sess := session.NewFD(fd)
		l.sessions[fd] = sess
		l.dispatcher.ClientConnected()
	}
}

// handleClient drives the codec against one client's readable event,
// dispatches every decoded frame in arrival order, and flushes all
// replies for the batch as a single write — spec.md §4.3's ordering
// guarantee.
func (l *eventLoop) handleClient(ev netpoll.Event, raw []byte) {
	sess, ok := l.sessions[ev.FD]
	if !ok {
		return
	}

	drop := false
	if ev.HasData {
		drop = l.drainReadable(sess, raw)
	}
	if ev.ConnectionClosed {
		drop = true
	}
	if drop {
		l.dropSession(sess)
	}
}

// drainReadable reads everything immediately available on sess's socket,
// dispatches every complete frame it contains, and writes the batch of
// replies back as one write. It reports true when the connection should
// be dropped: the peer closed it, the socket errored, or the decoder hit
// a protocol violation it cannot recover from.
func (l *eventLoop) drainReadable(sess *session.Session, raw []byte) (drop bool) {
	var acc []byte

	for {
		n, err := unix.Read(sess.FD, raw)
		if n > 0 {
			acc = append(acc, raw[:n]...)
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				break
			}
			drop = true
			break
		}
		if n == 0 {
			drop = true
			break
		}
		if n < len(raw) {
			break // short read: socket buffer drained for now
		}
	}

	if len(acc) == 0 {
		return drop
	}

	var replies []resp.Value
	var decodeErr error
	func() {
		defer rescue.HandleCrash()
		replies, decodeErr = l.dispatcher.HandleBulk(sess, acc)
	}()
	if decodeErr != nil {
		drop = true
	}

	if len(replies) > 0 {
		batch := resp.EncodeBatch(replies)
		if !l.writeAll(sess.FD, batch) {
			drop = true
		}
	}

	return drop
}

// writeAll writes buf to fd in full, continuing after a short write with
// the bytes that remain. A failed write, including one that would block
// because the send buffer is full, is fatal for the connection in this
// design (spec.md §4.3 assumes a cooperative client; a consistently-full
// send buffer is a client that is not reading its replies).
func (l *eventLoop) writeAll(fd int, buf []byte) bool {
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			logger.Errorf("event loop: write fd=%d failed: %v", fd, err)
			return false
		}
		if n <= 0 {
			return false
		}
		buf = buf[n:]
	}
	return true
}

func (l *eventLoop) dropSession(sess *session.Session) {
	l.poller.Deregister(sess.FD)
	delete(l.sessions, sess.FD)
	sess.Close()
	l.dispatcher.ClientDisconnected()
}
