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
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

// Level of a digital pin.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

// String returns "0" or "1".
func (l Level) String() string {
	if l == Low {
		return "0"
	}
	return "1"
}

// BitOrder of a shifted value.
type BitOrder int

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// pinIO performs reads & writes against the already configured
// resources of a pin. It holds no state.
type pinIO struct {
	log    zerolog.Logger
	fs     sysfs.FS
	layout Layout
}

// valuePath returns the resource backing the digital value of the pin.
func (p *pinIO) valuePath(pin model.PinDescriptor) (string, error) {
	if pin.IsLED() {
		return p.layout.ledPath(pin.LED, "brightness"), nil
	}
	if !pin.HasGPIO() {
		return "", errors.Wrapf(ConfigurationError, "pin %s has no gpio", pin.Key)
	}
	return p.layout.gpioPath(pin.GPIO, "value"), nil
}

// ReadDigital reads the level of the pin.
func (p *pinIO) ReadDigital(ctx context.Context, pin model.PinDescriptor) (Level, error) {
	path, err := p.valuePath(pin)
	if err != nil {
		return Low, maskAny(err)
	}
	raw, err := p.fs.ReadFile(ctx, path)
	if err != nil {
		ioErrorsTotal.WithLabelValues("read_digital").Inc()
		return Low, ioFailure(err, "cannot read value of %s", pin.Key)
	}
	text := strings.TrimSpace(string(raw))
	value, err := strconv.Atoi(text)
	if err != nil {
		ioErrorsTotal.WithLabelValues("read_digital").Inc()
		return Low, ioFailure(err, "invalid value '%s' of %s", text, pin.Key)
	}
	if value == 0 {
		return Low, nil
	}
	return High, nil
}

// WriteDigital sets the level of the pin.
func (p *pinIO) WriteDigital(ctx context.Context, pin model.PinDescriptor, level Level) error {
	path, err := p.valuePath(pin)
	if err != nil {
		return maskAny(err)
	}
	if err := p.fs.WriteFile(ctx, path, []byte(level.String())); err != nil {
		ioErrorsTotal.WithLabelValues("write_digital").Inc()
		return ioFailure(err, "cannot write value of %s", pin.Key)
	}
	return nil
}

// ReadAnalog reads the analog sample of the pin, divided by its scale.
func (p *pinIO) ReadAnalog(ctx context.Context, pin model.PinDescriptor) (float64, error) {
	if pin.Analog == nil {
		return 0, errors.Wrapf(ConfigurationError, "pin %s has no analog channel", pin.Key)
	}
	raw, err := p.fs.ReadFile(ctx, p.layout.analogPath(pin.Analog.Index))
	if err != nil {
		ioErrorsTotal.WithLabelValues("read_analog").Inc()
		return 0, ioFailure(err, "cannot read analog sample of %s", pin.Key)
	}
	text := strings.TrimSpace(string(raw))
	sample, err := strconv.ParseFloat(text, 64)
	if err != nil {
		sample = math.NaN()
	}
	value := sample / pin.Analog.Scale
	if math.IsNaN(value) {
		ioErrorsTotal.WithLabelValues("read_analog").Inc()
		return 0, maskAny(&AnalogReadError{Pin: pin.Key, Raw: text, Value: value})
	}
	return value, nil
}

// ShiftOut clocks the 8 bits of value out on the data pin.
// Every bit is written to the data pin, followed by a high & low
// pulse on the clock pin.
func (p *pinIO) ShiftOut(ctx context.Context, data, clock model.PinDescriptor, order BitOrder, value byte) error {
	for i := 0; i < 8; i++ {
		var bit byte
		if order == LSBFirst {
			bit = (value >> i) & 1
		} else {
			bit = (value >> (7 - i)) & 1
		}
		if err := p.WriteDigital(ctx, data, Level(bit)); err != nil {
			return maskAny(err)
		}
		if err := p.WriteDigital(ctx, clock, High); err != nil {
			return maskAny(err)
		}
		if err := p.WriteDigital(ctx, clock, Low); err != nil {
			return maskAny(err)
		}
	}
	return nil
}
