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
	"github.com/binkynet/PinWorker/pkg/service/mux"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

// Board gives access to the pins of a single board.
type Board interface {
	// ConfigurePin sets the electrical function of the pin.
	// Without options the pin is configured as GPIO.
	ConfigurePin(ctx context.Context, key string, direction mux.Direction, opts ...PinOption) error
	// QueryMuxState returns the decoded mux register of the pin.
	// Fields that cannot be read are left unknown.
	QueryMuxState(ctx context.Context, key string) (mux.Value, error)
	// ReadDigital reads the level of the pin.
	ReadDigital(ctx context.Context, key string) (Level, error)
	// WriteDigital sets the level of the pin.
	WriteDigital(ctx context.Context, key string, level Level) error
	// ReadAnalog reads the scaled analog sample of the pin.
	ReadAnalog(ctx context.Context, key string) (float64, error)
	// WritePWM sets the duty cycle (0..1) & frequency of the PWM channel of the pin.
	// A frequency of 0 selects DefaultPWMFrequency.
	WritePWM(ctx context.Context, key string, duty float64, freqHz uint) error
	// AttachEdgeInterrupt invokes the handler for every edge of the pin.
	AttachEdgeInterrupt(ctx context.Context, key string, edge monitor.Edge, handler InterruptHandler, notify NotifyFunc) error
	// DetachEdgeInterrupt stops the interrupt session of the pin.
	// Returns false if there was no session.
	DetachEdgeInterrupt(ctx context.Context, key string) (bool, error)
	// ShiftOut clocks the bits of value out on the data pin.
	ShiftOut(ctx context.Context, dataKey, clockKey string, order BitOrder, value byte) error
	// ReleasePin detaches interrupts, releases the PWM channel & GPIO of the pin.
	ReleasePin(ctx context.Context, key string) error
	// Allocations returns a snapshot of all GPIO & PWM allocations.
	Allocations() Allocations
	// Pins returns all pins of the board.
	Pins() []model.PinDescriptor
	// Close releases all interrupt sessions.
	Close(ctx context.Context) error

	AsyncBoard
}

// PinOption overrides a default of ConfigurePin.
type PinOption func(*mux.Setting)

// WithFunction selects the mux function (0..7).
func WithFunction(function int) PinOption {
	return func(s *mux.Setting) { s.Function = &function }
}

// WithPullup selects the pull resistor.
func WithPullup(pullup mux.Pullup) PinOption {
	return func(s *mux.Setting) { s.Pullup = pullup }
}

// WithSlew selects the slew rate.
func WithSlew(slew mux.Slew) PinOption {
	return func(s *mux.Setting) { s.Slew = slew }
}

type Config struct {
	// Pins of the board
	Pins []model.PinDescriptor
	// Location of kernel resources
	Layout Layout
}

type Dependencies struct {
	Logger zerolog.Logger
	FS     sysfs.FS
	// Ownership tables. A new registry is created when nil.
	Registry *Registry
	// Tracker of monitor tasks. The default tracker is used when nil.
	Tracker *monitor.Tracker
	// Opener of edge sources. Epoll is used when nil.
	Opener monitor.Opener
}

type board struct {
	Config
	Dependencies

	mutex      sync.Mutex
	pins       map[string]model.PinDescriptor
	pinMode    *pinModeManager
	pwm        *pwmManager
	io         *pinIO
	interrupts *interruptWatcher
}

// New creates a Board for the given pins.
func New(conf Config, deps Dependencies) (Board, error) {
	if deps.FS == nil {
		return nil, errors.Wrap(ConfigurationError, "FS is required")
	}
	if err := (model.PinTable{Pins: conf.Pins}).Validate(); err != nil {
		return nil, errors.Wrapf(ConfigurationError, "invalid pins: %v", err)
	}
	conf.Layout = conf.Layout.WithDefaults()
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	if deps.Tracker == nil {
		deps.Tracker = monitor.DefaultTracker()
	}
	if deps.Opener == nil {
		deps.Opener = monitor.NewEpollOpener(deps.FS)
	}
	b := &board{
		Config:       conf,
		Dependencies: deps,
		pins:         make(map[string]model.PinDescriptor, len(conf.Pins)),
	}
	for _, p := range conf.Pins {
		b.pins[p.Key] = p
	}
	b.interrupts = &interruptWatcher{
		log:      deps.Logger.With().Str("component", "interrupts").Logger(),
		fs:       deps.FS,
		layout:   conf.Layout,
		registry: deps.Registry,
		tracker:  deps.Tracker,
		opener:   deps.Opener,
	}
	b.pinMode = &pinModeManager{
		log:         deps.Logger.With().Str("component", "pin-mode").Logger(),
		fs:          deps.FS,
		layout:      conf.Layout,
		registry:    deps.Registry,
		stopSession: b.interrupts.stop,
	}
	b.pwm = &pwmManager{
		log:      deps.Logger.With().Str("component", "pwm").Logger(),
		fs:       deps.FS,
		layout:   conf.Layout,
		registry: deps.Registry,
		pinMode:  b.pinMode,
	}
	b.io = &pinIO{
		log:    deps.Logger.With().Str("component", "io").Logger(),
		fs:     deps.FS,
		layout: conf.Layout,
	}
	return b, nil
}

// pin returns the descriptor of the pin with given key.
func (b *board) pin(key string) (model.PinDescriptor, error) {
	if p, found := b.pins[key]; found {
		return p, nil
	}
	return model.PinDescriptor{}, errors.Wrapf(ConfigurationError, "unknown pin '%s'", key)
}

// ConfigurePin sets the electrical function of the pin.
func (b *board) ConfigurePin(ctx context.Context, key string, direction mux.Direction, opts ...PinOption) error {
	pin, err := b.pin(key)
	if err != nil {
		return maskAny(err)
	}
	s := mux.NewSetting(direction)
	for _, opt := range opts {
		opt(&s)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.pinMode.Configure(ctx, pin, s)
}

// QueryMuxState returns the decoded mux register of the pin.
func (b *board) QueryMuxState(ctx context.Context, key string) (mux.Value, error) {
	pin, err := b.pin(key)
	if err != nil {
		return mux.UnknownValue(key), maskAny(err)
	}
	return b.pinMode.Query(ctx, pin), nil
}

// ReadDigital reads the level of the pin.
func (b *board) ReadDigital(ctx context.Context, key string) (Level, error) {
	pin, err := b.pin(key)
	if err != nil {
		return Low, maskAny(err)
	}
	return b.io.ReadDigital(ctx, pin)
}

// WriteDigital sets the level of the pin.
func (b *board) WriteDigital(ctx context.Context, key string, level Level) error {
	pin, err := b.pin(key)
	if err != nil {
		return maskAny(err)
	}
	return b.io.WriteDigital(ctx, pin, level)
}

// ReadAnalog reads the scaled analog sample of the pin.
func (b *board) ReadAnalog(ctx context.Context, key string) (float64, error) {
	pin, err := b.pin(key)
	if err != nil {
		return 0, maskAny(err)
	}
	return b.io.ReadAnalog(ctx, pin)
}

// WritePWM sets the duty cycle & frequency of the PWM channel of the pin.
func (b *board) WritePWM(ctx context.Context, key string, duty float64, freqHz uint) error {
	pin, err := b.pin(key)
	if err != nil {
		return maskAny(err)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.pwm.Write(ctx, pin, duty, freqHz)
}

// AttachEdgeInterrupt invokes the handler for every edge of the pin.
func (b *board) AttachEdgeInterrupt(ctx context.Context, key string, edge monitor.Edge, handler InterruptHandler, notify NotifyFunc) error {
	pin, err := b.pin(key)
	if err != nil {
		return maskAny(err)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.interrupts.Attach(ctx, pin, edge, handler, notify)
}

// DetachEdgeInterrupt stops the interrupt session of the pin.
func (b *board) DetachEdgeInterrupt(ctx context.Context, key string) (bool, error) {
	pin, err := b.pin(key)
	if err != nil {
		return false, maskAny(err)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.interrupts.Detach(ctx, pin)
}

// ShiftOut clocks the bits of value out on the data pin.
func (b *board) ShiftOut(ctx context.Context, dataKey, clockKey string, order BitOrder, value byte) error {
	data, err := b.pin(dataKey)
	if err != nil {
		return maskAny(err)
	}
	clock, err := b.pin(clockKey)
	if err != nil {
		return maskAny(err)
	}
	return b.io.ShiftOut(ctx, data, clock, order, value)
}

// ReleasePin detaches interrupts, releases the PWM channel & GPIO of the pin.
func (b *board) ReleasePin(ctx context.Context, key string) error {
	pin, err := b.pin(key)
	if err != nil {
		return maskAny(err)
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if _, err := b.interrupts.Detach(ctx, pin); err != nil {
		return maskAny(err)
	}
	if err := b.pwm.Release(ctx, pin); err != nil {
		return maskAny(err)
	}
	b.pinMode.Release(ctx, pin)
	return nil
}

// Allocations returns a snapshot of all GPIO & PWM allocations.
func (b *board) Allocations() Allocations {
	return b.Registry.Snapshot()
}

// Pins returns all pins of the board.
func (b *board) Pins() []model.PinDescriptor {
	return append([]model.PinDescriptor(nil), b.Config.Pins...)
}

// Close releases all interrupt sessions.
func (b *board) Close(ctx context.Context) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.interrupts.StopAll(ctx)
	return nil
}
