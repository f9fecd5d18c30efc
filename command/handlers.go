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
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/kataradb/kataradb/internal/fasttime"
	"github.com/kataradb/kataradb/resp"
)

func cmdPing(_ [][]byte, _ *Dispatcher) resp.Value {
	return resp.SimpleString("PONG")
}

// cmdSet implements SET key value [EX seconds]. Argument arrival as raw
// BulkStrings means the EX duration arrives as bytes and must be coerced
// to an int — done with spf13/cast rather than a bare strconv call, same
// loose-coercion idiom the teacher's option handling uses.
func cmdSet(args [][]byte, d *Dispatcher) resp.Value {
	if len(args) != 2 && len(args) != 4 {
		return resp.Error("ERR wrong number of arguments for 'set' command")
	}

	key, value := string(args[0]), args[1]
	var ttlMs int64

	if len(args) == 4 {
		if !strings.EqualFold(string(args[2]), "EX") {
			return resp.Error("ERR syntax error")
		}
		seconds, err := cast.ToInt64E(string(args[3]))
		if err != nil {
			return resp.Error("ERR value is not an integer or out of range")
		}
		ttlMs = seconds * 1000
	}

	d.Keyspace.Put(key, value, ttlMs)
	return resp.SimpleString("OK")
}

// cmdGet implements GET key. A missing key replies with the literal empty
// bulk string `$0\r\n\r\n`, per spec.md's end-to-end scenario S4 and design
// note (Redis compatibility would instead use the null bulk string).
func cmdGet(args [][]byte, d *Dispatcher) resp.Value {
	if len(args) != 1 {
		return resp.Error("ERR wrong number of arguments for 'get' command")
	}
	v, ok := d.Keyspace.Get(string(args[0]))
	if !ok {
		return resp.EmptyBulkString()
	}
	return resp.BulkString(v.Payload)
}

func cmdDel(args [][]byte, d *Dispatcher) resp.Value {
	var n int64
	for _, key := range args {
		if d.Keyspace.Remove(string(key)) {
			n++
		}
	}
	return resp.Integer(n)
}

// cmdExpire implements EXPIRE key seconds. Per spec.md's design note, a
// non-integer seconds argument replies Integer(0) rather than an error —
// confirmed deliberate by original_source/cmd/cmd_expire.rs (see
// SPEC_FULL.md §7), not merely the reference's laxest option.
func cmdExpire(args [][]byte, d *Dispatcher) resp.Value {
	if len(args) != 2 {
		return resp.Integer(0)
	}
	seconds, err := cast.ToInt64E(string(args[1]))
	if err != nil {
		return resp.Integer(0)
	}
	if d.Keyspace.Expire(string(args[0]), seconds) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdTTL(args [][]byte, d *Dispatcher) resp.Value {
	if len(args) != 1 {
		return resp.Integer(-2)
	}
	ms := d.Keyspace.TTLMillisRemaining(string(args[0]))
	if ms == -1 || ms == -2 {
		return resp.Integer(ms)
	}
	return resp.Integer(ms / 1000)
}

func cmdIncr(args [][]byte, d *Dispatcher) resp.Value {
	if len(args) != 1 {
		return resp.Error("ERR wrong number of arguments for 'incr' command")
	}
	n, err := d.Keyspace.Incr(string(args[0]))
	if err != nil {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return resp.Integer(n)
}

// cmdInfo renders a stats payload grounded on original_source/src/stats.rs
// (SPEC_FULL.md §7): key count, expired/evicted counts, uptime, connected
// clients — the fields the distilled spec.md names only by command, not
// by shape.
func cmdInfo(_ [][]byte, d *Dispatcher) resp.Value {
	stats := d.Keyspace.Stats()
	uptime := fasttime.NowMillis()/1000 - d.startedAtUnix

	payload := fmt.Sprintf(
		"# Server\r\nuptime_in_seconds:%d\r\nconnected_clients:%d\r\n"+
			"# Keyspace\r\nkeys:%d\r\nexpired_keys:%d\r\nevicted_keys:%d\r\n",
		uptime, d.clients, stats.Keys, stats.Expired, stats.Evicted,
	)
	return resp.BulkStringFrom(payload)
}

func cmdBgRewriteAOF(_ [][]byte, d *Dispatcher) resp.Value {
	if d.AOF == nil {
		return resp.Error("ERR AOF rewrite is not configured")
	}
	if err := d.AOF.Rewrite(d.Keyspace); err != nil {
		return resp.Errorf("ERR %v", err)
	}
	return resp.SimpleString("OK")
}
