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
	"encoding/json"

	"github.com/kataradb/kataradb/common"
	"github.com/kataradb/kataradb/store"
)

// renderInfoJSON renders the admin HTTP plane's GET /info route
// (SPEC_FULL.md §5.10) as JSON: build information plus the keyspace
// counters the RESP INFO command also reports. INFO's uptime_in_seconds
// and connected_clients fields are not included. The JSON encoding
// that would normally come from the teacher's goccy/go-json dependency
// is done with the standard library instead: that dependency has no
// home in this domain (see DESIGN.md) and a handful of scalar fields on
// an admin-only, low-frequency route do not justify pulling it back in.
func renderInfoJSON(stats store.Stats, build common.BuildInfo) string {
	payload := struct {
		Version     string `json:"version"`
		GitHash     string `json:"git_hash"`
		BuildTime   string `json:"build_time"`
		Keys        int64  `json:"keys"`
		ExpiredKeys int64  `json:"expired_keys"`
		EvictedKeys int64  `json:"evicted_keys"`
	}{
		Version:     build.Version,
		GitHash:     build.GitHash,
		BuildTime:   build.Time,
		Keys:        stats.Keys,
		ExpiredKeys: stats.Expired,
		EvictedKeys: stats.Evicted,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}
