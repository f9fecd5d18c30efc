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
	"github.com/kataradb/kataradb/aof"
	"github.com/kataradb/kataradb/store"
)

// Config is the top-level YAML shape SPEC_FULL.md §5.1 describes: one
// section per subsystem, each unpacked independently so a missing section
// falls back to that subsystem's own defaults.
type Config struct {
	Server     LoopConfig             `config:"server"`
	Keyspace   store.Config           `config:"keyspace"`
	Expiration store.ExpirationConfig `config:"expiration"`
	AOF        aof.Config             `config:"aof"`
}

func DefaultConfig() Config {
	return Config{
		Server:     DefaultLoopConfig(),
		Keyspace:   store.DefaultConfig(),
		Expiration: store.DefaultExpirationConfig(),
		AOF:        aof.DefaultConfig(),
	}
}
