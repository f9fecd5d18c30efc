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
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kataradb/kataradb/aof"
	"github.com/kataradb/kataradb/internal/fasttime"
	"github.com/kataradb/kataradb/internal/rescue"
	"github.com/kataradb/kataradb/resp"
	"github.com/kataradb/kataradb/session"
	"github.com/kataradb/kataradb/store"
)

var commandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kataradb",
		Name:      "commands_total",
		Help:      "commands processed, by name",
	},
	[]string{"command"},
)

var connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "kataradb",
	Name:      "connections_active",
	Help:      "currently connected clients",
})

// Dispatcher holds the shared state command handlers act on: the
// keyspace and the AOF rewrite path. One Dispatcher is shared by every
// connection's event-loop-driven dispatch, which is safe because the loop
// itself is single-threaded (spec.md §5).
type Dispatcher struct {
	Keyspace *store.Keyspace
	AOF      *aof.AOF

	startedAtUnix int64
	clients       int64 // atomic, mirrors connectedClients gauge
}

func NewDispatcher(ks *store.Keyspace, a *aof.AOF) *Dispatcher {
	return &Dispatcher{
		Keyspace:      ks,
		AOF:           a,
		startedAtUnix: fasttime.NowMillis() / 1000,
	}
}

// ClientConnected/ClientDisconnected track the connection count INFO
// reports; the controller's accept/close path calls these.
func (d *Dispatcher) ClientConnected() {
	atomic.AddInt64(&d.clients, 1)
	connectedClients.Inc()
}

func (d *Dispatcher) ClientDisconnected() {
	atomic.AddInt64(&d.clients, -1)
	connectedClients.Dec()
}

// HandleBulk decodes every RESP frame newly readable on sess's connection,
// dispatches each in arrival order, and returns the batch of replies to be
// encoded and flushed as one write. A non-nil error means the decoder hit
// a protocol violation; the caller must close the connection after
// flushing whatever replies were already produced.
func (d *Dispatcher) HandleBulk(sess *session.Session, data []byte) ([]resp.Value, error) {
	sess.Decoder.Feed(data)
	requests, decodeErr := sess.Decoder.DecodeBulk()

	replies := make([]resp.Value, 0, len(requests))
	for _, req := range requests {
		replies = append(replies, d.Dispatch(sess, req))
	}
	return replies, decodeErr
}

// Dispatch executes a single decoded request against sess and the store,
// or queues it if sess is mid-transaction. It never panics out to the
// caller: a handler panic is contained and turned into an Error reply, the
// same containment internal/rescue gives the event loop's goroutines.
func (d *Dispatcher) Dispatch(sess *session.Session, req resp.Value) (reply resp.Value) {
	defer func() {
		if r := recover(); r != nil {
			for _, fn := range rescue.PanicHandlers {
				fn(r)
			}
			reply = resp.Error("ERR internal error")
		}
	}()

	name, args, ok := extractCommand(req)
	if !ok {
		return resp.Error("ERR wrong argument type")
	}
	upper := strings.ToUpper(name)
	commandsTotal.WithLabelValues(upper).Inc()

	if transactionVerbs[upper] {
		return d.dispatchTransactionVerb(sess, upper)
	}

	if sess.TxActive {
		sess.Enqueue(req)
		return resp.SimpleString("QUEUED")
	}

	handler, ok := registry[upper]
	if !ok {
		// spec.md §9 design note: unknown commands reply +OK in this
		// design rather than an error (kept deliberately, not fixed).
		return resp.SimpleString("OK")
	}
	return handler(args, d)
}

// extractCommand validates the request shape: a non-empty Array whose
// first element is the command name and every remaining element is a
// BulkString argument, per spec.md §4.4.
func extractCommand(req resp.Value) (name string, args [][]byte, ok bool) {
	if req.Kind != resp.KindArray || req.Null || len(req.Array) == 0 {
		return "", nil, false
	}
	head := req.Array[0]
	if head.Kind != resp.KindBulkString || head.Null {
		return "", nil, false
	}

	args = make([][]byte, 0, len(req.Array)-1)
	for _, elem := range req.Array[1:] {
		if elem.Kind != resp.KindBulkString || elem.Null {
			return "", nil, false
		}
		args = append(args, elem.Bulk)
	}
	return string(head.Bulk), args, true
}
