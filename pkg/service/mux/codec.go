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

package mux

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Direction of a pin.
type Direction string

const (
	Output      Direction = "out"
	Input       Direction = "in"
	InputPullup Direction = "in_pullup"
)

// IsInput returns true for input-like directions.
func (d Direction) IsInput() bool {
	return d != Output
}

// Validate returns an error if the direction is unknown.
func (d Direction) Validate() error {
	switch d {
	case Output, Input, InputPullup:
		return nil
	default:
		return errors.Errorf("invalid direction '%s'", string(d))
	}
}

// KernelDirection returns the value written to the direction resource
// of a GPIO.
func (d Direction) KernelDirection() string {
	if d.IsInput() {
		return string(Input)
	}
	return string(Output)
}

// Pullup state of the pin's pull resistor.
type Pullup string

const (
	PullUnknown  Pullup = ""
	PullDown     Pullup = "pulldown"
	PullUp       Pullup = "pullup"
	PullDisabled Pullup = "disabled"
)

// Slew rate of the pin driver.
type Slew string

const (
	SlewUnknown Slew = ""
	SlewFast    Slew = "fast"
	SlewSlow    Slew = "slow"
)

// Receiver state of the pin input buffer.
type Receiver string

const (
	ReceiverUnknown  Receiver = ""
	ReceiverEnabled  Receiver = "enabled"
	ReceiverDisabled Receiver = "disabled"
)

const (
	// GPIOFunction is the mux function that routes the pin to its GPIO.
	GPIOFunction = 7
	// FunctionUnknown is used in decoded values when the function could not be parsed.
	FunctionUnknown = -1
	// RegisterUnknown is used in decoded values when the register could not be parsed.
	RegisterUnknown = -1
)

const (
	slowSlewBit     = 0x40
	receiverBit     = 0x20
	pullupMask      = 0x18
	pullupShift     = 3
	functionMask    = 0x07
	pullDownBits    = 0
	pullOffBits     = 1
	pullUpBits      = 2
	pullInvalidBits = 3
)

// Setting is a requested configuration of a mux register.
type Setting struct {
	Direction Direction
	// Mux function 0..7, nil selects GPIOFunction
	Function *int
	Pullup   Pullup
	Slew     Slew
}

// NewSetting creates a setting for the given direction with all
// other fields set to their defaults.
func NewSetting(direction Direction) Setting {
	return Setting{
		Direction: direction,
	}
}

// Resolve fills in all defaults of the given setting.
func Resolve(s Setting) Setting {
	if s.Direction == InputPullup && s.Pullup == PullUnknown {
		s.Pullup = PullUp
	}
	if s.Pullup == PullUnknown {
		if s.Direction.IsInput() {
			s.Pullup = PullDown
		} else {
			s.Pullup = PullDisabled
		}
	}
	if s.Slew == SlewUnknown {
		s.Slew = SlewFast
	}
	if s.Function == nil {
		s.Function = lo.ToPtr(GPIOFunction)
	}
	return s
}

// IsGPIO returns true if the (resolved) setting selects the GPIO function.
func (s Setting) IsGPIO() bool {
	return *Resolve(s).Function == GPIOFunction
}

// String returns a human readable form of the setting.
func (s Setting) String() string {
	function := "default"
	if s.Function != nil {
		function = strconv.Itoa(*s.Function)
	}
	return fmt.Sprintf("%s mode%s %s %s", s.Direction, function, s.Pullup, s.Slew)
}

// Encode packs the given setting into a mux register byte.
// Defaults are applied first.
func Encode(s Setting) (byte, error) {
	s = Resolve(s)
	if err := s.Direction.Validate(); err != nil {
		return 0, maskAny(err)
	}
	function := *s.Function
	if function < 0 || function > GPIOFunction {
		return 0, errors.Errorf("mux function out of range [0..%d], got %d", GPIOFunction, function)
	}
	var result byte
	switch s.Slew {
	case SlewSlow:
		result |= slowSlewBit
	case SlewFast:
	default:
		return 0, errors.Errorf("invalid slew '%s'", string(s.Slew))
	}
	if s.Direction.IsInput() {
		result |= receiverBit
	}
	switch s.Pullup {
	case PullDown:
		result |= pullDownBits << pullupShift
	case PullDisabled:
		result |= pullOffBits << pullupShift
	case PullUp:
		result |= pullUpBits << pullupShift
	default:
		return 0, errors.Errorf("invalid pullup '%s'", string(s.Pullup))
	}
	result |= byte(function) & functionMask
	return result, nil
}

// FormatRegister returns the textual form written to a mux register resource.
func FormatRegister(value byte) string {
	return fmt.Sprintf("%x", value)
}

var maskAny = errors.WithStack
