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
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/mux"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

var (
	consumerPattern = regexp.MustCompile(`gpio-(\d+)\s+\((\S+)\s*\)`)
)

// pinModeManager configures the electrical function of pins and
// owns the GPIO export/direction lifecycle.
type pinModeManager struct {
	log      zerolog.Logger
	fs       sysfs.FS
	layout   Layout
	registry *Registry
	// Called to stop the interrupt session of a GPIO that is being released.
	stopSession func(ctx context.Context, a GPIOAllocation) bool
}

// Configure the given pin with the given setting.
func (m *pinModeManager) Configure(ctx context.Context, pin model.PinDescriptor, s mux.Setting) error {
	configureTotal.WithLabelValues(pin.Key).Inc()
	if err := m.configure(ctx, pin, s); err != nil {
		configureErrorsTotal.WithLabelValues(pin.Key).Inc()
		return err
	}
	return nil
}

func (m *pinModeManager) configure(ctx context.Context, pin model.PinDescriptor, s mux.Setting) error {
	log := m.log.With().Str("pin", pin.Key).Logger()
	if pin.Mux == "" {
		return errors.Wrapf(ConfigurationError, "pin %s has no mux register", pin.Key)
	}
	if err := s.Direction.Validate(); err != nil {
		return errors.Wrapf(ConfigurationError, "pin %s: %v", pin.Key, err)
	}
	s = mux.Resolve(s)
	register, err := mux.Encode(s)
	if err != nil {
		return errors.Wrapf(ConfigurationError, "pin %s: %v", pin.Key, err)
	}
	isGPIO := s.IsGPIO()
	if isGPIO && !pin.HasGPIO() {
		return errors.Wrapf(ConfigurationError, "pin %s has no gpio", pin.Key)
	}
	if pin.IsLED() && (!isGPIO || s.Direction != mux.Output) {
		return errors.Wrapf(ConfigurationError, "led pin %s only supports gpio output", pin.Key)
	}
	if pin.HasGPIO() {
		if a, found := m.registry.GPIO(pin.GPIO); found && a.Owner != pin.Key {
			return errors.Wrapf(ResourceConflictError, "gpio %d of %s is owned by %s", pin.GPIO, pin.Key, a.Owner)
		}
	}

	// Write mux register
	if err := m.fs.WriteFile(ctx, m.layout.muxPath(pin.Mux), []byte(mux.FormatRegister(register))); err != nil {
		log.Warn().Err(err).Str("mux", pin.Mux).Msg("Failed to write mux register")
		if pin.HasGPIO() {
			m.forget(ctx, pin)
		}
		return ioFailure(err, "cannot write mux register %s of %s", pin.Mux, pin.Key)
	}
	log.Debug().
		Str("mux", pin.Mux).
		Str("register", mux.FormatRegister(register)).
		Str("setting", s.String()).
		Msg("Wrote mux register")

	if !isGPIO {
		// GPIO is now used for something else
		if pin.HasGPIO() {
			m.release(ctx, pin)
		}
		return nil
	}
	if pin.IsLED() {
		return m.configureLED(ctx, pin)
	}
	return m.configureGPIO(ctx, pin, s.Direction)
}

// configureLED binds the pin to its LED class device and
// puts the LED under manual control.
func (m *pinModeManager) configureLED(ctx context.Context, pin model.PinDescriptor) error {
	if err := m.fs.WriteFile(ctx, m.layout.ledPath(pin.LED, "trigger"), []byte("none")); err != nil {
		return ioFailure(err, "cannot set trigger of led %s", pin.LED)
	}
	m.registry.putGPIO(GPIOAllocation{
		GPIO:      pin.GPIO,
		Owner:     pin.Key,
		Direction: mux.Output,
		ValuePath: m.layout.ledPath(pin.LED, "brightness"),
		LED:       pin.LED,
	})
	return nil
}

// configureGPIO exports the GPIO of the pin (when needed) and sets its direction.
func (m *pinModeManager) configureGPIO(ctx context.Context, pin model.PinDescriptor, direction mux.Direction) error {
	log := m.log.With().Str("pin", pin.Key).Int("gpio", pin.GPIO).Logger()
	a, found := m.registry.GPIO(pin.GPIO)
	exported := found && a.Exported
	if !found && !m.fs.Exists(ctx, m.layout.gpioPath(pin.GPIO, "value")) {
		if err := m.fs.WriteFile(ctx, m.layout.exportPath(), []byte(strconv.Itoa(pin.GPIO))); err != nil {
			log.Warn().Err(err).Msg("Failed to export gpio")
			return m.exportFailure(ctx, pin, err)
		}
		exported = true
		log.Debug().Msg("Exported gpio")
	}
	if err := m.fs.WriteFile(ctx, m.layout.gpioPath(pin.GPIO, "direction"), []byte(direction.KernelDirection())); err != nil {
		return ioFailure(err, "cannot set direction of gpio %d of %s", pin.GPIO, pin.Key)
	}
	m.registry.putGPIO(GPIOAllocation{
		GPIO:      pin.GPIO,
		Owner:     pin.Key,
		Exported:  exported,
		Direction: direction,
		ValuePath: m.layout.gpioPath(pin.GPIO, "value"),
	})
	return nil
}

// exportFailure builds the error for a failed export.
// The consumer listing is consulted to name the current holder (best effort).
func (m *pinModeManager) exportFailure(ctx context.Context, pin model.PinDescriptor, exportErr error) error {
	if holder, found := m.findConsumer(ctx, pin.GPIO); found {
		return errors.Wrapf(ResourceConflictError, "gpio %d of %s is held by '%s' (%v)", pin.GPIO, pin.Key, holder, exportErr)
	}
	return ioFailure(exportErr, "cannot export gpio %d of %s", pin.GPIO, pin.Key)
}

// findConsumer searches the GPIO consumer listing for the given GPIO.
func (m *pinModeManager) findConsumer(ctx context.Context, gpio int) (string, bool) {
	raw, err := m.fs.ReadFile(ctx, m.layout.GPIOConsumers)
	if err != nil {
		m.log.Debug().Err(err).Msg("Cannot read gpio consumers")
		return "", false
	}
	for _, match := range consumerPattern.FindAllStringSubmatch(string(raw), -1) {
		if n, err := strconv.Atoi(match[1]); err == nil && n == gpio {
			return match[2], true
		}
	}
	return "", false
}

// Query reads & decodes the mux register of the given pin.
// Failures are logged and result in a (partially) unknown value.
func (m *pinModeManager) Query(ctx context.Context, pin model.PinDescriptor) mux.Value {
	log := m.log.With().Str("pin", pin.Key).Logger()
	if pin.Mux == "" {
		log.Debug().Msg("Pin has no mux register")
		return mux.UnknownValue(pin.Key)
	}
	raw, err := m.fs.ReadFile(ctx, m.layout.muxPath(pin.Mux))
	if err != nil {
		log.Warn().Err(ioFailure(err, "cannot read mux register %s", pin.Mux)).Msg("Failed to query mux state")
		return mux.UnknownValue(pin.Key)
	}
	value, err := mux.Decode(pin.Key, string(raw))
	if err != nil {
		log.Warn().Err(errors.Wrapf(ParseFailureError, "%v", err)).Msg("Mux state partially decoded")
	}
	return value
}

// Release the GPIO of the given pin, if owned by the pin.
func (m *pinModeManager) Release(ctx context.Context, pin model.PinDescriptor) {
	if pin.HasGPIO() {
		m.release(ctx, pin)
	}
}

// release drops the allocation of the pin's GPIO and un-exports it
// when it was exported by us.
func (m *pinModeManager) release(ctx context.Context, pin model.PinDescriptor) {
	a, found := m.forget(ctx, pin)
	if !found || !a.Exported {
		return
	}
	if err := m.fs.WriteFile(ctx, m.layout.unexportPath(), []byte(strconv.Itoa(a.GPIO))); err != nil {
		m.log.Warn().Err(err).Int("gpio", a.GPIO).Msg("Failed to unexport gpio")
	}
}

// forget drops the allocation of the pin's GPIO (if owned by the pin)
// and stops its interrupt session.
func (m *pinModeManager) forget(ctx context.Context, pin model.PinDescriptor) (GPIOAllocation, bool) {
	a, found := m.registry.GPIO(pin.GPIO)
	if !found || a.Owner != pin.Key {
		return GPIOAllocation{}, false
	}
	if a.session != nil && m.stopSession != nil {
		m.stopSession(ctx, a)
	}
	m.registry.removeGPIO(pin.GPIO)
	return a, true
}
