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
	"net"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// listen opens a non-blocking raw TCP listening socket on addr
// ("host:port"). Unlike net.Listen, the returned fd is not handed to the
// Go runtime's own poller: the event loop registers it with its own
// netpoll.Poller instead (spec.md §4.2's "portable between kqueue and
// epoll" core owns its own readiness surface).
func listen(addr string) (int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return -1, errors.Wrapf(err, "listen: invalid address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return -1, errors.Wrapf(err, "listen: invalid port %q", portStr)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return -1, errors.Errorf("listen: cannot resolve host %q", host)
		}
		ip = ips[0]
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return -1, errors.Errorf("listen: only IPv4 is supported, got %q", host)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, errors.Wrap(err, "listen: socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "listen: setsockopt SO_REUSEADDR")
	}

	var sa unix.SockaddrInet4
	sa.Port = port
	copy(sa.Addr[:], ip4)

	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return -1, errors.Wrapf(err, "listen: bind %s", addr)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "listen: listen")
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "listen: set nonblocking")
	}
	return fd, nil
}

// acceptOne accepts one pending connection off listenerFD without
// blocking. ok is false (err nil) when no connection is currently
// pending — the listener's own would-block outcome.
func acceptOne(listenerFD int) (fd int, ok bool, err error) {
	connFD, _, err := unix.Accept(listenerFD)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return -1, false, nil
		}
		return -1, false, err
	}
	if err := unix.SetNonblock(connFD, true); err != nil {
		unix.Close(connFD)
		return -1, false, err
	}
	return connFD, true, nil
}
