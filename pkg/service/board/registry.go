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
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/mux"
)

// GPIOAllocation records the ownership of a GPIO number.
type GPIOAllocation struct {
	// GPIO number
	GPIO int `json:"gpio"`
	// Key of the owning pin
	Owner string `json:"owner"`
	// Set when the GPIO was exported by us
	Exported bool `json:"exported"`
	// Direction of the last configuration
	Direction mux.Direction `json:"direction"`
	// Resource used for reading & writing the value
	ValuePath string `json:"value_path"`
	// LED alias (if any)
	LED string `json:"led,omitempty"`
	// Edge of the live interrupt session (if any)
	Interrupt monitor.Edge `json:"interrupt,omitempty"`
	// State of the live interrupt session (if any)
	InterruptState SessionState `json:"interrupt_state,omitempty"`

	session *interruptSession
}

// PWMAllocation records the ownership of a PWM channel.
type PWMAllocation struct {
	// Channel resource path
	Path string `json:"path"`
	// Key of the owning pin
	Owner string `json:"owner"`
	// Current frequency
	FrequencyHz uint `json:"frequency_hz"`
	// Last written duty cycle
	DutyPercent int `json:"duty_percent"`
	// Set when the channel is running
	Running bool `json:"running"`
}

// Allocations is a snapshot of a registry.
type Allocations struct {
	GPIO []GPIOAllocation `json:"gpio"`
	PWM  []PWMAllocation  `json:"pwm"`
}

// Registry holds the GPIO & PWM ownership tables.
// It is safe for concurrent use, but compound check-then-act
// sequences must be serialized by the caller.
type Registry struct {
	mutex sync.Mutex
	gpios map[int]*GPIOAllocation
	pwms  map[string]*PWMAllocation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		gpios: make(map[int]*GPIOAllocation),
		pwms:  make(map[string]*PWMAllocation),
	}
}

// GPIO returns the allocation of the given GPIO number.
func (r *Registry) GPIO(gpio int) (GPIOAllocation, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if a, found := r.gpios[gpio]; found {
		return *a, true
	}
	return GPIOAllocation{}, false
}

// PWM returns the allocation of the given PWM channel.
func (r *Registry) PWM(path string) (PWMAllocation, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if a, found := r.pwms[path]; found {
		return *a, true
	}
	return PWMAllocation{}, false
}

// putGPIO stores the given allocation.
// A live interrupt session of the same owner is preserved.
func (r *Registry) putGPIO(a GPIOAllocation) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if existing, found := r.gpios[a.GPIO]; found && existing.Owner == a.Owner {
		a.session = existing.session
		a.Interrupt = existing.Interrupt
	}
	r.gpios[a.GPIO] = &a
}

// removeGPIO removes the allocation of the given GPIO number.
func (r *Registry) removeGPIO(gpio int) (GPIOAllocation, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, found := r.gpios[gpio]
	if !found {
		return GPIOAllocation{}, false
	}
	delete(r.gpios, gpio)
	return *a, true
}

// setSession attaches the given session to the allocation of its GPIO.
func (r *Registry) setSession(s *interruptSession) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, found := r.gpios[s.gpio]
	if !found || a.Owner != s.pin {
		return errors.Wrapf(ConfigurationError, "gpio %d is not allocated to %s", s.gpio, s.pin)
	}
	if a.session != nil {
		return errors.Wrapf(ResourceConflictError, "interrupt already attached to %s", s.pin)
	}
	a.session = s
	a.Interrupt = s.edge
	return nil
}

// clearSession removes the given session from the allocation of its GPIO.
// Returns false if the session was no longer attached.
func (r *Registry) clearSession(s *interruptSession) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, found := r.gpios[s.gpio]
	if !found || a.session != s {
		return false
	}
	a.session = nil
	a.Interrupt = ""
	return true
}

// putPWM stores the given allocation.
func (r *Registry) putPWM(a PWMAllocation) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.pwms[a.Path] = &a
}

// removePWM removes the allocation of the given PWM channel.
func (r *Registry) removePWM(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.pwms, path)
}

// sessions returns all live interrupt sessions.
func (r *Registry) sessions() []*interruptSession {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var result []*interruptSession
	for _, a := range r.gpios {
		if a.session != nil {
			result = append(result, a.session)
		}
	}
	return result
}

// Snapshot returns a copy of all allocations, sorted by GPIO number & PWM path.
func (r *Registry) Snapshot() Allocations {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	gpioKeys := lo.Keys(r.gpios)
	sort.Ints(gpioKeys)
	pwmKeys := lo.Keys(r.pwms)
	sort.Strings(pwmKeys)
	return Allocations{
		GPIO: lo.Map(gpioKeys, func(gpio int, _ int) GPIOAllocation {
			a := *r.gpios[gpio]
			if a.session != nil {
				a.InterruptState = a.session.State()
			}
			a.session = nil
			return a
		}),
		PWM: lo.Map(pwmKeys, func(path string, _ int) PWMAllocation {
			return *r.pwms[path]
		}),
	}
}
