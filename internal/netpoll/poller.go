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

// Package netpoll is the OS-agnostic readiness surface the event loop
// polls: register a file descriptor for read notifications, poll for
// events, close the kernel queue. Exactly one implementation compiles per
// platform (epoll on linux, kqueue on darwin/bsd), the same split
// sniffer/libpcap makes between pcap_linux.go and pcap_other.go.
package netpoll

// Event reports one fd's readiness. HasData and ConnectionClosed are
// reported separately because some platforms (kqueue) coalesce them into
// a single EOF-flagged readable event.
type Event struct {
	FD               int
	HasData          bool
	ConnectionClosed bool
}

// Poller is the single-threaded readiness surface spec.md §4.2 describes.
// Every method is called only from the event loop's goroutine; Poller
// implementations keep no locks.
type Poller interface {
	// Register adds fd to the set watched for READ readiness.
	Register(fd int) error
	// Deregister removes fd. Safe to call after the fd has already been
	// closed by the peer.
	Deregister(fd int) error
	// Poll returns the events ready within timeoutMs (0 = return
	// immediately with whatever is already ready).
	Poll(timeoutMs int) ([]Event, error)
	// Close releases the underlying kernel queue.
	Close() error
}
