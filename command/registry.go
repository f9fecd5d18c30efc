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

// Package command implements the command registry and dispatcher: one
// handler per simple command, plus MULTI/EXEC/DISCARD transaction
// queueing layered on top of the same dispatch path.
package command

import "github.com/kataradb/kataradb/resp"

// HandlerFunc executes one command's side effect against the dispatcher's
// store and returns the RESP reply. The dispatcher never lets a handler
// panic escape to the connection: Dispatch recovers and replies with an
// error instead.
type HandlerFunc func(args [][]byte, d *Dispatcher) resp.Value

// registry maps an (uppercased) command name to its handler. A dispatcher
// table rather than per-command objects: spec.md §9 calls either
// acceptable when a closed command set suffices, and a table avoids
// dynamic-dispatch indirection the teacher's protocol decoders don't need
// either.
var registry = map[string]HandlerFunc{
	"PING":         cmdPing,
	"SET":          cmdSet,
	"GET":          cmdGet,
	"DEL":          cmdDel,
	"EXPIRE":       cmdExpire,
	"TTL":          cmdTTL,
	"INCR":         cmdIncr,
	"INFO":         cmdInfo,
	"BGREWRITEAOF": cmdBgRewriteAOF,
}

// transactionVerbs always run immediately, even while a transaction is
// active — they control queueing itself rather than being queued by it.
var transactionVerbs = map[string]bool{
	"MULTI":   true,
	"EXEC":    true,
	"DISCARD": true,
}
