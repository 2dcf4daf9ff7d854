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

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/mux"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

const (
	// DefaultPWMFrequency is used when a PWM write does not specify a frequency.
	DefaultPWMFrequency = 1000
)

// pwmManager arbitrates ownership of PWM channels.
type pwmManager struct {
	log      zerolog.Logger
	fs       sysfs.FS
	layout   Layout
	registry *Registry
	pinMode  *pinModeManager
}

type pwmWrite struct {
	file  string
	value string
}

// Write the given duty cycle (0..1) at given frequency to the PWM channel of the pin.
func (m *pwmManager) Write(ctx context.Context, pin model.PinDescriptor, duty float64, freqHz uint) error {
	if pin.PWM == nil {
		return errors.Wrapf(ConfigurationError, "pin %s has no pwm channel", pin.Key)
	}
	if math.IsNaN(duty) || duty < 0 || duty > 1 {
		return errors.Wrapf(ConfigurationError, "duty of %s out of range [0..1], got %v", pin.Key, duty)
	}
	if freqHz == 0 {
		freqHz = DefaultPWMFrequency
	}
	channel := pin.PWM.Path
	log := m.log.With().Str("pin", pin.Key).Str("channel", channel).Logger()
	pwmWritesTotal.WithLabelValues(channel).Inc()

	a, found := m.registry.PWM(channel)
	if found && a.Owner != pin.Key {
		pwmConflictsTotal.WithLabelValues(channel).Inc()
		return errors.Wrapf(ResourceConflictError, "pwm channel %s of %s is in use by %s", channel, pin.Key, a.Owner)
	}
	freq := strconv.FormatUint(uint64(freqHz), 10)
	if !found {
		setting := mux.Setting{
			Direction: mux.Output,
			Function:  lo.ToPtr(pin.PWM.MuxMode),
			Pullup:    mux.PullDisabled,
			Slew:      mux.SlewFast,
		}
		if err := m.pinMode.Configure(ctx, pin, setting); err != nil {
			return maskAny(err)
		}
		if err := m.writeSequence(ctx, channel,
			pwmWrite{"request", "0"}, // Clear unmanaged usage
			pwmWrite{"request", "1"},
			pwmWrite{"period_freq", freq},
			pwmWrite{"polarity", "0"},
			pwmWrite{"run", "1"},
		); err != nil {
			return maskAny(err)
		}
		a = PWMAllocation{
			Path:        channel,
			Owner:       pin.Key,
			FrequencyHz: freqHz,
			Running:     true,
		}
		m.registry.putPWM(a)
		log.Debug().Str("frequency", humanize.SI(float64(freqHz), "Hz")).Msg("Allocated pwm channel")
	} else if a.FrequencyHz != freqHz {
		// Stop before changing the period to avoid a glitching duty cycle
		if err := m.writeSequence(ctx, channel, pwmWrite{"run", "0"}); err != nil {
			return maskAny(err)
		}
		a.Running = false
		m.registry.putPWM(a)
		if err := m.writeSequence(ctx, channel,
			pwmWrite{"duty_percent", "0"},
			pwmWrite{"period_freq", freq},
			pwmWrite{"run", "1"},
		); err != nil {
			return maskAny(err)
		}
		log.Debug().
			Str("old-frequency", humanize.SI(float64(a.FrequencyHz), "Hz")).
			Str("frequency", humanize.SI(float64(freqHz), "Hz")).
			Msg("Changed pwm frequency")
		a.FrequencyHz = freqHz
		a.DutyPercent = 0
		a.Running = true
		m.registry.putPWM(a)
	}

	percent := int(math.Round(duty * 100))
	if err := m.writeSequence(ctx, channel, pwmWrite{"duty_percent", strconv.Itoa(percent)}); err != nil {
		return maskAny(err)
	}
	a.DutyPercent = percent
	m.registry.putPWM(a)
	pwmDutyGauge.WithLabelValues(channel).Set(float64(percent))
	return nil
}

// Release the PWM channel of the pin, if owned by the pin.
func (m *pwmManager) Release(ctx context.Context, pin model.PinDescriptor) error {
	if pin.PWM == nil {
		return nil
	}
	channel := pin.PWM.Path
	a, found := m.registry.PWM(channel)
	if !found || a.Owner != pin.Key {
		return nil
	}
	if err := m.writeSequence(ctx, channel,
		pwmWrite{"run", "0"},
		pwmWrite{"request", "0"},
	); err != nil {
		return maskAny(err)
	}
	m.registry.removePWM(channel)
	pwmDutyGauge.DeleteLabelValues(channel)
	m.log.Debug().Str("pin", pin.Key).Str("channel", channel).Msg("Released pwm channel")
	return nil
}

// writeSequence performs the given writes in order, stopping at the first failure.
func (m *pwmManager) writeSequence(ctx context.Context, channel string, writes ...pwmWrite) error {
	for _, w := range writes {
		if err := m.fs.WriteFile(ctx, m.layout.pwmPath(channel, w.file), []byte(w.value)); err != nil {
			return ioFailure(err, "cannot write %s of pwm channel %s", w.file, channel)
		}
	}
	return nil
}
