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
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	eventQueueSize = 32
)

// Task is a background task that blocks on a GPIO value resource
// and reports every edge to its owner.
// It shares no state with its owner; all communication goes through
// its request, event & exit channels.
type Task struct {
	id       uint64
	log      zerolog.Logger
	tracker  *Tracker
	cancel   context.CancelFunc
	sendOnce sync.Once
	requests chan Request
	ready    chan struct{}
	events   chan Event
	exit     chan Exit
	done     chan struct{}
}

// ID returns the unique (per tracker) identifier of the task.
func (t *Task) ID() uint64 {
	return t.id
}

// Send passes the request to the task.
// Only the first request is accepted.
func (t *Task) Send(req Request) error {
	accepted := false
	t.sendOnce.Do(func() {
		accepted = true
		t.requests <- req
	})
	if !accepted {
		return errors.Errorf("monitor task %d already received a request", t.id)
	}
	return nil
}

// Ready is closed once the task has opened its edge source
// and is waiting for edges.
func (t *Task) Ready() <-chan struct{} {
	return t.ready
}

// Events returns the channel on which edge events are delivered.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Exited returns the channel on which the exit notification is delivered.
// The channel is closed after the notification.
func (t *Task) Exited() <-chan Exit {
	return t.exit
}

// Done is closed when the task has terminated.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Kill terminates the task and waits until it is done.
func (t *Task) Kill() {
	t.cancel()
	<-t.done
}

// run the task until its context is canceled or its source fails.
func (t *Task) run(ctx context.Context, opener Opener) {
	var exitErr error
	defer func() {
		if r := recover(); r != nil {
			exitErr = errors.Errorf("monitor task panicked: %v", r)
		}
		t.tracker.remove(t)
		t.exit <- Exit{Err: exitErr}
		close(t.exit)
		close(t.done)
		if exitErr != nil {
			t.log.Warn().Err(exitErr).Msg("Monitor task died")
		} else {
			t.log.Debug().Msg("Monitor task stopped")
		}
	}()

	var req Request
	select {
	case req = <-t.requests:
	case <-ctx.Done():
		return
	}
	log := t.log.With().Str("pin", req.Pin).Str("edge", string(req.Edge)).Logger()
	t.log = log
	src, err := opener(ctx, req)
	if err != nil {
		exitErr = errors.Wrapf(err, "cannot watch %s", req.ValuePath)
		return
	}
	defer src.Close()
	close(t.ready)
	log.Debug().Str("path", req.ValuePath).Msg("Monitor task waiting for edges")

	for {
		value, err := src.Wait(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			exitErr = errors.Wrapf(err, "wait for edge on %s failed", req.ValuePath)
			return
		}
		select {
		case t.events <- Event{Value: value}:
			edgesTotal.WithLabelValues(req.Pin).Inc()
		case <-ctx.Done():
			return
		}
	}
}

func (t *Task) String() string {
	return fmt.Sprintf("monitor-%d", t.id)
}
