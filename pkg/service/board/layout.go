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
	"fmt"
	"path"
)

// Layout describes where the kernel exposes its pin resources.
// All paths are relative to the root of the sysfs FS.
type Layout struct {
	// Directory containing the mux register resources
	MuxDir string
	// GPIO class directory (export, unexport, gpioN/...)
	GPIODir string
	// LED class directory
	LEDDir string
	// Prefix of LED class device names
	LEDPrefix string
	// PWM class directory
	PWMDir string
	// Directory containing the ainN analog sample resources
	AnalogDir string
	// Listing of GPIO consumers
	GPIOConsumers string
}

// DefaultLayout returns the layout of a BeagleBone running a 3.2 kernel.
func DefaultLayout() Layout {
	return Layout{
		MuxDir:        "/sys/kernel/debug/omap_mux",
		GPIODir:       "/sys/class/gpio",
		LEDDir:        "/sys/class/leds",
		LEDPrefix:     "beaglebone::",
		PWMDir:        "/sys/class/pwm",
		AnalogDir:     "/sys/bus/platform/devices/tsc",
		GPIOConsumers: "/sys/kernel/debug/gpio",
	}
}

// WithDefaults returns a copy of the layout with all empty fields
// set to their default.
func (l Layout) WithDefaults() Layout {
	def := DefaultLayout()
	if l.MuxDir == "" {
		l.MuxDir = def.MuxDir
	}
	if l.GPIODir == "" {
		l.GPIODir = def.GPIODir
	}
	if l.LEDDir == "" {
		l.LEDDir = def.LEDDir
	}
	if l.LEDPrefix == "" {
		l.LEDPrefix = def.LEDPrefix
	}
	if l.PWMDir == "" {
		l.PWMDir = def.PWMDir
	}
	if l.AnalogDir == "" {
		l.AnalogDir = def.AnalogDir
	}
	if l.GPIOConsumers == "" {
		l.GPIOConsumers = def.GPIOConsumers
	}
	return l
}

func (l Layout) muxPath(mux string) string {
	return path.Join(l.MuxDir, mux)
}

func (l Layout) exportPath() string {
	return path.Join(l.GPIODir, "export")
}

func (l Layout) unexportPath() string {
	return path.Join(l.GPIODir, "unexport")
}

func (l Layout) gpioPath(gpio int, file string) string {
	return path.Join(l.GPIODir, fmt.Sprintf("gpio%d", gpio), file)
}

func (l Layout) ledPath(led, file string) string {
	return path.Join(l.LEDDir, l.LEDPrefix+led, file)
}

func (l Layout) pwmPath(channel, file string) string {
	return path.Join(l.PWMDir, channel, file)
}

func (l Layout) analogPath(index int) string {
	return path.Join(l.AnalogDir, fmt.Sprintf("ain%d", index+1))
}
