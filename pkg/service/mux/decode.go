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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Value is the decoded state of a mux register.
// Fields that could not be decoded are left at their unknown value.
type Value struct {
	// Key of the pin
	Pin string `json:"pin"`
	// Mux function 0..7 or FunctionUnknown
	Function int `json:"function"`
	// Raw register value or RegisterUnknown
	Register int      `json:"register"`
	Slew     Slew     `json:"slew,omitempty"`
	Receiver Receiver `json:"rx,omitempty"`
	Pullup   Pullup   `json:"pullup,omitempty"`
	// Signal names selectable by the mux, indexed by function
	Options []string `json:"options,omitempty"`
}

// UnknownValue returns a value that carries only the pin identity.
func UnknownValue(pin string) Value {
	return Value{
		Pin:      pin,
		Function: FunctionUnknown,
		Register: RegisterUnknown,
	}
}

// Setting returns the pullup, slew & function of the value as a setting.
// Direction is derived from the receiver state.
// An unknown function is left nil.
func (v Value) Setting() Setting {
	dir := Output
	if v.Receiver == ReceiverEnabled {
		dir = Input
	}
	s := Setting{
		Direction: dir,
		Pullup:    v.Pullup,
		Slew:      v.Slew,
	}
	if v.Function != FunctionUnknown {
		s.Function = lo.ToPtr(v.Function)
	}
	return s
}

// Decode parses the status dump of a mux register resource.
// The dump looks like this:
//
//	name: mcasp0_axr0.spi1_d1 (0x44e10998/0x998 = 0x0023), b NA, t NA
//	mode: OMAP_PIN_OUTPUT | OMAP_MUX_MODE3
//	signals: mcasp0_axr0 | ehrpwm0_tripzone | NA | spi1_d1 | mmc2_sdcd_mux1 | NA | NA | gpio3_16
//
// Decode always returns the best value it could obtain.
// A non-nil error describes the parts that could not be decoded.
func Decode(pin, raw string) (Value, error) {
	v := UnknownValue(pin)
	var problems []string
	lines := strings.Split(raw, "\n")

	if fn, err := parseFunction(lines); err != nil {
		problems = append(problems, err.Error())
	} else {
		v.Function = fn
	}

	if reg, err := parseRegister(lines); err != nil {
		problems = append(problems, err.Error())
	} else {
		v.Register = reg
		if reg&slowSlewBit != 0 {
			v.Slew = SlewSlow
		} else {
			v.Slew = SlewFast
		}
		if reg&receiverBit != 0 {
			v.Receiver = ReceiverEnabled
		} else {
			v.Receiver = ReceiverDisabled
		}
		switch (reg & pullupMask) >> pullupShift {
		case pullDownBits:
			v.Pullup = PullDown
		case pullOffBits:
			v.Pullup = PullDisabled
		case pullUpBits:
			v.Pullup = PullUp
		case pullInvalidBits:
			problems = append(problems, "invalid pullup bits 11 in register 0x"+strconv.FormatInt(int64(reg), 16))
		}
	}

	if options, err := parseOptions(lines); err != nil {
		problems = append(problems, err.Error())
	} else {
		v.Options = options
	}

	if len(problems) > 0 {
		return v, errors.Errorf("cannot fully decode mux state of %s: %s", pin, strings.Join(problems, "; "))
	}
	return v, nil
}

// parseFunction extracts the mux mode from the second line
// ("mode: OMAP_PIN_OUTPUT | OMAP_MUX_MODE3").
func parseFunction(lines []string) (int, error) {
	if len(lines) < 2 {
		return 0, errors.New("missing mode line")
	}
	parts := strings.Split(lines[1], "|")
	if len(parts) < 2 {
		return 0, errors.Errorf("malformed mode line '%s'", lines[1])
	}
	modeText := strings.TrimSpace(parts[1])
	if modeText == "" {
		return 0, errors.Errorf("malformed mode line '%s'", lines[1])
	}
	fn, err := strconv.Atoi(modeText[len(modeText)-1:])
	if err != nil || fn > GPIOFunction {
		return 0, errors.Errorf("malformed mux mode '%s'", modeText)
	}
	return fn, nil
}

// parseRegister extracts the register value from the first line
// ("name: ... (0x44e10998/0x998 = 0x0023), b NA, t NA").
func parseRegister(lines []string) (int, error) {
	if len(lines) < 1 {
		return 0, errors.New("missing name line")
	}
	parts := strings.SplitN(lines[0], "=", 2)
	if len(parts) < 2 {
		return 0, errors.Errorf("malformed name line '%s'", lines[0])
	}
	text := strings.TrimSpace(parts[1])
	if idx := strings.IndexAny(text, "), "); idx >= 0 {
		text = text[:idx]
	}
	reg, err := strconv.ParseInt(text, 0, 32)
	if err != nil || reg < 0 {
		return 0, errors.Errorf("malformed register value '%s'", text)
	}
	return int(reg), nil
}

// parseOptions extracts the signal names from the third line
// ("signals: a | b | ...").
func parseOptions(lines []string) ([]string, error) {
	if len(lines) < 3 || strings.TrimSpace(lines[2]) == "" {
		return nil, errors.New("missing signals line")
	}
	parts := strings.Split(lines[2], "|")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, " ", "")
		p = strings.TrimPrefix(p, "signals:")
		if p == "" {
			p = "NA"
		}
		result = append(result, p)
	}
	return result, nil
}
