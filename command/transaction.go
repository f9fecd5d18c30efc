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
	"github.com/kataradb/kataradb/resp"
	"github.com/kataradb/kataradb/session"
)

// dispatchTransactionVerb handles MULTI/EXEC/DISCARD, which always run
// immediately regardless of whether a transaction is already active — they
// control the queue rather than being subject to it.
func (d *Dispatcher) dispatchTransactionVerb(sess *session.Session, verb string) resp.Value {
	switch verb {
	case "MULTI":
		return txMulti(sess)
	case "EXEC":
		return d.txExec(sess)
	case "DISCARD":
		return txDiscard(sess)
	default:
		return resp.Error("ERR unknown transaction verb")
	}
}

// txMulti sets is_transaction_active. Nested MULTI is left unspecified by
// spec.md; this design replies with an error and leaves the existing
// transaction untouched, the SHOULD behavior spec.md §4.4 suggests.
func txMulti(sess *session.Session) resp.Value {
	if !sess.BeginTransaction() {
		return resp.Error("ERR MULTI calls can not be nested")
	}
	return resp.SimpleString("OK")
}

// txExec drains the queue in FIFO order and re-dispatches each raw request
// exactly as if freshly received, now that TxActive is already cleared, so
// each runs for real instead of being re-queued.
func (d *Dispatcher) txExec(sess *session.Session) resp.Value {
	if !sess.TxActive {
		return resp.Error("ERR EXEC without MULTI")
	}
	queued := sess.DrainTransaction()

	results := make([]resp.Value, 0, len(queued))
	for _, req := range queued {
		results = append(results, d.Dispatch(sess, req))
	}
	return resp.NewArray(results)
}

func txDiscard(sess *session.Session) resp.Value {
	if !sess.TxActive {
		return resp.Error("ERR DISCARD without MULTI")
	}
	sess.DrainTransaction()
	return resp.SimpleString("OK")
}
