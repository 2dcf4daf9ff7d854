// Copyright 2026 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

//go:build linux

package monitor

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

const (
	// Timeout of a single epoll wait, bounds the reaction time to cancellation.
	epollWaitTimeoutMs = 100
)

// NewEpollOpener returns an Opener that waits for edges using epoll
// on the value resource, the way the kernel GPIO sysfs interface expects.
// The edge mode must already be configured on the pin.
func NewEpollOpener(fs sysfs.FS) Opener {
	return func(ctx context.Context, req Request) (EdgeSource, error) {
		if err := req.Edge.Validate(); err != nil {
			return nil, maskAny(err)
		}
		return openEpoll(fs.RealPath(req.ValuePath))
	}
}

type epollSource struct {
	file    *os.File
	fd      int
	epfd    int
	initial bool
	buf     [16]byte
}

// openEpoll opens the value file at given path and registers it with a new epoll instance.
func openEpoll(path string) (*epollSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, maskAny(err)
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "epoll_create failed")
	}
	fd := int(f.Fd())
	event := unix.EpollEvent{
		Events: unix.EPOLLPRI | unix.EPOLLERR | unix.EPOLLET,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		unix.Close(epfd)
		f.Close()
		return nil, errors.Wrap(err, "epoll_ctl failed")
	}
	return &epollSource{
		file:    f,
		fd:      fd,
		epfd:    epfd,
		initial: true,
	}, nil
}

// Wait blocks until the next edge.
func (s *epollSource) Wait(ctx context.Context) (int, error) {
	var events [1]unix.EpollEvent
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := unix.EpollWait(s.epfd, events[:], epollWaitTimeoutMs)
		if err == unix.EINTR {
			continue
		} else if err != nil {
			return 0, errors.Wrap(err, "epoll_wait failed")
		}
		if n == 0 {
			continue
		}
		value, err := s.readValue()
		if err != nil {
			return 0, maskAny(err)
		}
		if s.initial {
			// The kernel reports the current state once after registration.
			s.initial = false
			continue
		}
		return value, nil
	}
}

// Close the epoll instance and value file.
func (s *epollSource) Close() error {
	unix.Close(s.epfd)
	return maskAny(s.file.Close())
}

// readValue reads the value file from the start.
func (s *epollSource) readValue() (int, error) {
	if _, err := unix.Seek(s.fd, 0, 0); err != nil {
		return 0, errors.Wrap(err, "seek failed")
	}
	n, err := unix.Read(s.fd, s.buf[:])
	if err != nil {
		return 0, errors.Wrap(err, "read failed")
	}
	return parseValue(s.buf[:n])
}
