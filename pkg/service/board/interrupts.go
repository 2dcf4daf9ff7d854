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

package board

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

// InterruptEvent is passed to an interrupt handler for every edge.
type InterruptEvent struct {
	Pin   string `json:"pin"`
	Value int    `json:"value"`
}

// InterruptHandler is invoked for every edge.
// A non-nil result is forwarded to the notify function of the attach.
type InterruptHandler func(InterruptEvent) interface{}

// Notification reports the progress of an interrupt session.
type Notification struct {
	Pin string `json:"pin"`
	// Set once the session is attached
	Attached bool `json:"attached,omitempty"`
	// Set once the session is detached by its owner
	Detached bool `json:"detached,omitempty"`
	// Non-nil result of the handler
	Output interface{} `json:"output,omitempty"`
	// Set when the monitor task died unexpectedly
	Died bool  `json:"died,omitempty"`
	Err  error `json:"-"`
}

// NotifyFunc receives notifications of an interrupt session.
type NotifyFunc func(Notification)

// SessionState is the state of an interrupt session.
type SessionState string

const (
	SessionDetached  SessionState = "detached"
	SessionAttaching SessionState = "attaching"
	SessionAttached  SessionState = "attached"
	SessionDied      SessionState = "died"
)

// interruptSession binds a monitor task to a GPIO.
type interruptSession struct {
	pin     string
	gpio    int
	edge    monitor.Edge
	handler InterruptHandler
	notify  NotifyFunc
	task    *monitor.Task

	mutex      sync.Mutex
	state      SessionState
	stopOnce   sync.Once
	stopping   chan struct{}
	dispatched chan struct{}
}

func (s *interruptSession) State() SessionState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

func (s *interruptSession) setState(state SessionState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state = state
}

// send the given notification (if a notify function was given).
func (s *interruptSession) send(n Notification) {
	if s.notify != nil {
		n.Pin = s.pin
		s.notify(n)
	}
}

// interruptWatcher attaches edge interrupts to GPIO pins.
type interruptWatcher struct {
	log      zerolog.Logger
	fs       sysfs.FS
	layout   Layout
	registry *Registry
	tracker  *monitor.Tracker
	opener   monitor.Opener
}

// Attach an edge interrupt to the given pin.
// The pin must be configured as GPIO.
func (w *interruptWatcher) Attach(ctx context.Context, pin model.PinDescriptor, edge monitor.Edge, handler InterruptHandler, notify NotifyFunc) error {
	if err := edge.Validate(); err != nil {
		return errors.Wrapf(ConfigurationError, "pin %s: %v", pin.Key, err)
	}
	if handler == nil {
		return errors.Wrapf(ConfigurationError, "no interrupt handler for %s", pin.Key)
	}
	if pin.IsLED() || !pin.HasGPIO() {
		return errors.Wrapf(ConfigurationError, "pin %s cannot receive interrupts", pin.Key)
	}
	a, found := w.registry.GPIO(pin.GPIO)
	if !found || a.Owner != pin.Key {
		return errors.Wrapf(ConfigurationError, "pin %s is not configured as gpio", pin.Key)
	}
	if a.session != nil {
		return errors.Wrapf(ResourceConflictError, "interrupt already attached to %s", pin.Key)
	}
	log := w.log.With().Str("pin", pin.Key).Str("edge", string(edge)).Logger()

	if err := w.fs.WriteFile(ctx, w.layout.gpioPath(pin.GPIO, "edge"), []byte(edge)); err != nil {
		return ioFailure(err, "cannot set edge of gpio %d of %s", pin.GPIO, pin.Key)
	}

	s := &interruptSession{
		pin:        pin.Key,
		gpio:       pin.GPIO,
		edge:       edge,
		handler:    handler,
		notify:     notify,
		state:      SessionAttaching,
		stopping:   make(chan struct{}),
		dispatched: make(chan struct{}),
	}
	if err := w.registry.setSession(s); err != nil {
		return maskAny(err)
	}
	s.task = w.tracker.Start(w.log, w.opener)
	if err := s.task.Send(monitor.Request{Pin: pin.Key, Edge: edge, ValuePath: a.ValuePath}); err != nil {
		s.task.Kill()
		w.registry.clearSession(s)
		return errors.Wrapf(ProcessFailureError, "cannot start monitor for %s: %v", pin.Key, err)
	}
	select {
	case <-s.task.Ready():
	case exit := <-s.task.Exited():
		w.registry.clearSession(s)
		w.resetEdge(ctx, s)
		return errors.Wrapf(ProcessFailureError, "monitor for %s failed to start: %v", pin.Key, exit.Err)
	case <-ctx.Done():
		s.task.Kill()
		w.registry.clearSession(s)
		w.resetEdge(context.Background(), s)
		return maskAny(ctx.Err())
	}

	s.setState(SessionAttached)
	interruptSessionsGauge.Inc()
	log.Info().Uint64("task", s.task.ID()).Msg("Attached interrupt")
	s.send(Notification{Attached: true})
	go w.dispatch(log, s)
	return nil
}

// Detach the interrupt session of the given pin.
// Returns false when the pin has no live session.
// Must not be called from an interrupt handler.
func (w *interruptWatcher) Detach(ctx context.Context, pin model.PinDescriptor) (bool, error) {
	if !pin.HasGPIO() {
		return false, nil
	}
	a, found := w.registry.GPIO(pin.GPIO)
	if !found || a.Owner != pin.Key || a.session == nil {
		return false, nil
	}
	return w.stop(ctx, a), nil
}

// stop the session of the given allocation.
// Returns false when the session already died.
func (w *interruptWatcher) stop(ctx context.Context, a GPIOAllocation) bool {
	s := a.session
	if s == nil {
		return false
	}
	s.stopOnce.Do(func() { close(s.stopping) })
	s.task.Kill()
	<-s.dispatched
	if !w.registry.clearSession(s) {
		return false
	}
	interruptSessionsGauge.Dec()
	w.resetEdge(ctx, s)
	s.setState(SessionDetached)
	w.log.Info().Str("pin", s.pin).Msg("Detached interrupt")
	s.send(Notification{Detached: true})
	return true
}

// StopAll stops all live interrupt sessions.
func (w *interruptWatcher) StopAll(ctx context.Context) {
	for _, s := range w.registry.sessions() {
		if a, found := w.registry.GPIO(s.gpio); found {
			w.stop(ctx, a)
		}
	}
}

// resetEdge disables edge detection on the GPIO of the session (best effort).
func (w *interruptWatcher) resetEdge(ctx context.Context, s *interruptSession) {
	if err := w.fs.WriteFile(ctx, w.layout.gpioPath(s.gpio, "edge"), []byte(monitor.EdgeNone)); err != nil {
		w.log.Debug().Err(err).Str("pin", s.pin).Msg("Failed to reset edge")
	}
}

// dispatch delivers the events of the monitor task of the session
// to its handler until the session is stopped or the task dies.
func (w *interruptWatcher) dispatch(log zerolog.Logger, s *interruptSession) {
	defer close(s.dispatched)
	for {
		select {
		case <-s.stopping:
			return
		case ev := <-s.task.Events():
			w.deliver(log, s, ev)
		case exit := <-s.task.Exited():
			select {
			case <-s.stopping:
				return
			default:
			}
			// Deliver events that arrived before the task died
			for drained := false; !drained; {
				select {
				case ev := <-s.task.Events():
					w.deliver(log, s, ev)
				default:
					drained = true
				}
			}
			w.died(log, s, exit)
			return
		}
	}
}

// deliver a single event to the handler of the session.
func (w *interruptWatcher) deliver(log zerolog.Logger, s *interruptSession, ev monitor.Event) {
	interruptEventsTotal.WithLabelValues(s.pin).Inc()
	output := func() (result interface{}) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Interrupt handler panicked")
				result = nil
			}
		}()
		return s.handler(InterruptEvent{Pin: s.pin, Value: ev.Value})
	}()
	if output != nil {
		s.send(Notification{Output: output})
	}
}

// died handles the unexpected termination of the monitor task of the session.
func (w *interruptWatcher) died(log zerolog.Logger, s *interruptSession, exit monitor.Exit) {
	if w.registry.clearSession(s) {
		interruptSessionsGauge.Dec()
	}
	s.setState(SessionDied)
	cause := "terminated"
	if exit.Err != nil {
		cause = exit.Err.Error()
	}
	err := errors.Wrapf(ProcessFailureError, "monitor task of %s died: %s", s.pin, cause)
	log.Warn().Err(err).Msg("Interrupt monitor died")
	s.send(Notification{Died: true, Err: err})
}
