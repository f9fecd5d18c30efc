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

//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package netpoll

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// kqueuePoller is the BSD/Darwin counterpart to epollPoller. kqueue
// reports peer-close as EV_EOF on the same readable event rather than a
// distinct flag, which Poll below folds into Event.ConnectionClosed.
type kqueuePoller struct {
	kq int
}

func New() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, errors.Wrap(err, "netpoll: kqueue")
	}
	return &kqueuePoller{kq: fd}, nil
}

func (p *kqueuePoller) Register(fd int) error {
	ev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{ev}, nil, nil)
	return err
}

func (p *kqueuePoller) Deregister(fd int) error {
	ev := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_DELETE,
	}
	_, err := unix.Kevent(p.kq, []unix.Kevent_t{ev}, nil, nil)
	if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EBADF) {
		return nil
	}
	return err
}

func (p *kqueuePoller) Poll(timeoutMs int) ([]Event, error) {
	raw := make([]unix.Kevent_t, 256)
	var ts unix.Timespec
	tsp := &ts
	if timeoutMs < 0 {
		tsp = nil
	} else {
		ts.Sec = int64(timeoutMs / 1000)
		ts.Nsec = int64((timeoutMs % 1000) * 1_000_000)
	}

	n, err := unix.Kevent(p.kq, nil, raw, tsp)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "netpoll: kevent")
	}

	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		e := raw[i]
		events = append(events, Event{
			FD:               int(e.Ident),
			HasData:          true,
			ConnectionClosed: e.Flags&unix.EV_EOF != 0,
		})
	}
	return events, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
