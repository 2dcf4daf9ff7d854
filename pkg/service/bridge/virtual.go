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
	"time"
)

type virtualBridge struct {
}

// NewVirtualBridge implements the bridge for a worker without activity led.
func NewVirtualBridge() (API, error) {
	return &virtualBridge{}, nil
}

// Turn activity led on/off
func (p *virtualBridge) SetActivityLED(on bool) error {
	return nil
}

// Blink activity led with given duration between on/off
func (p *virtualBridge) BlinkActivityLED(delay time.Duration) error {
	return nil
}

// Flash the activity led once
func (p *virtualBridge) FlashActivityLED() {
}

func (p *virtualBridge) Close() error {
	return nil
}
