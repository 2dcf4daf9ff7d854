//    Copyright 2017 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
)

const (
	flashDuration = time.Millisecond * 20
)

type statusLed struct {
	sync.Mutex
	pin         OutputPin
	on          bool
	flashing    bool
	cancelBlink func()
}

// Turn led on/off, cancel blink
func (l *statusLed) Set(on bool) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	if err := l.pin.Write(on); err != nil {
		return errors.Wrap(err, "Write failed")
	}
	l.on = on
	return nil
}

// Blink led on/off
func (l *statusLed) Blink(delay time.Duration) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelBlink = cancel
	go func() {
		value := true
		for {
			l.Mutex.Lock()
			if ctx.Err() == nil {
				l.pin.Write(value)
				l.on = value
				value = !value
			}
			l.Mutex.Unlock()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Flash inverts the led shortly, unless it is blinking.
func (l *statusLed) Flash() {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if l.cancelBlink != nil || l.flashing {
		return
	}
	l.flashing = true
	l.pin.Write(!l.on)
	time.AfterFunc(flashDuration, func() {
		l.Mutex.Lock()
		defer l.Mutex.Unlock()
		l.flashing = false
		if l.cancelBlink == nil {
			l.pin.Write(l.on)
		}
	})
}

type gpioBridge struct {
	activityLed statusLed
}

// NewGPIOBridge implements the bridge using a led connected to the
// given GPIO number.
func NewGPIOBridge(activityLedGPIO int) (API, error) {
	activeLow := false
	initialValue := false
	pin, err := gpio.Output(activityLedGPIO, activeLow, initialValue)
	if err != nil {
		return nil, errors.Wrap(err, "Output[activityLed] failed")
	}
	return newBridge(pin), nil
}

// newBridge creates a bridge for the given led pin.
func newBridge(pin OutputPin) *gpioBridge {
	return &gpioBridge{
		activityLed: statusLed{pin: pin},
	}
}

// Turn activity led on/off
func (p *gpioBridge) SetActivityLED(on bool) error {
	if err := p.activityLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[activityLed] failed")
	}
	return nil
}

// Blink activity led with given duration between on/off
func (p *gpioBridge) BlinkActivityLED(delay time.Duration) error {
	if err := p.activityLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[activityLed] failed")
	}
	return nil
}

// Flash the activity led once
func (p *gpioBridge) FlashActivityLED() {
	p.activityLed.Flash()
}

// Close turns the activity led off.
func (p *gpioBridge) Close() error {
	if err := p.activityLed.Set(false); err != nil {
		return errors.Wrap(err, "Close failed")
	}
	return nil
}
