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

package monitor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

const (
	// DefaultPollInterval is the interval between reads of a polled value resource.
	DefaultPollInterval = time.Millisecond * 5
)

// NewPollOpener returns an Opener that detects edges by periodically
// reading the value resource through the given file system.
// It works on any file system, including simulated ones.
func NewPollOpener(fs sysfs.FS, interval time.Duration) Opener {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return func(ctx context.Context, req Request) (EdgeSource, error) {
		if err := req.Edge.Validate(); err != nil {
			return nil, maskAny(err)
		}
		src := &pollSource{
			fs:       fs,
			path:     req.ValuePath,
			edge:     req.Edge,
			interval: interval,
		}
		value, err := src.read(ctx)
		if err != nil {
			return nil, maskAny(err)
		}
		src.last = value
		return src, nil
	}
}

type pollSource struct {
	fs       sysfs.FS
	path     string
	edge     Edge
	interval time.Duration
	last     int
}

// Wait blocks until the next edge.
func (s *pollSource) Wait(ctx context.Context) (int, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
		value, err := s.read(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			return 0, maskAny(err)
		}
		last := s.last
		s.last = value
		if s.edge.Matches(last, value) {
			return value, nil
		}
	}
}

// Close is a no-op for polled sources.
func (s *pollSource) Close() error {
	return nil
}

// read the current value of the pin.
func (s *pollSource) read(ctx context.Context) (int, error) {
	raw, err := s.fs.ReadFile(ctx, s.path)
	if err != nil {
		return 0, maskAny(err)
	}
	return parseValue(raw)
}

// parseValue parses the content of a GPIO value resource.
func parseValue(raw []byte) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid gpio value '%s'", strings.TrimSpace(string(raw)))
	}
	return value, nil
}

var maskAny = errors.WithStack
