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
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.viam.com/test"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

var testPins = []model.PinDescriptor{
	{Key: "P9_12", Name: "GPIO1_28", Mux: "gpmc_ben1", GPIO: 60},
	{Key: "P9_15", Name: "GPIO1_16", Mux: "gpmc_a0", GPIO: 48},
	{Key: "P9_14", Name: "EHRPWM1A", Mux: "gpmc_a2", GPIO: 50, PWM: &model.PWMDescriptor{Path: "ehrpwm.1:0", Name: "EHRPWM1A", MuxMode: 6}},
	{Key: "P8_36", Name: "UART3_CTSN", Mux: "lcd_data10", GPIO: 80, PWM: &model.PWMDescriptor{Path: "ehrpwm.1:0", Name: "EHRPWM1A", MuxMode: 2}},
	{Key: "P9_21", Name: "UART2_TXD", Mux: "spi0_d0", GPIO: 3},
	{Key: "P9_22", Name: "UART2_RXD", Mux: "spi0_sclk", GPIO: 2},
	{Key: "P9_39", Name: "AIN0", GPIO: -1, Analog: &model.AnalogDescriptor{Index: 0, Scale: 4096}},
	{Key: "USR0", Name: "USR0", Mux: "gpmc_a5", GPIO: 53, LED: "usr0"},
}

// fakeKernel simulates the kernel resources of a board on top of
// an in-memory file system. All writes are recorded in a journal.
type fakeKernel struct {
	mutex      sync.Mutex
	fs         afero.Fs
	layout     Layout
	journal    []string
	failWrites map[string]error
}

var _ sysfs.FS = &fakeKernel{}

// newFakeKernel creates a kernel exposing the resources of the given pins.
func newFakeKernel(t *testing.T, pins []model.PinDescriptor) *fakeKernel {
	k := &fakeKernel{
		fs:         afero.NewMemMapFs(),
		layout:     DefaultLayout(),
		failWrites: make(map[string]error),
	}
	create := func(p, content string) {
		test.That(t, afero.WriteFile(k.fs, p, []byte(content), 0o644), test.ShouldBeNil)
	}
	create(k.layout.exportPath(), "")
	create(k.layout.unexportPath(), "")
	create(k.layout.GPIOConsumers, "GPIOs 0-31, gpio:\n\nGPIOs 32-63, gpio:\n gpio-53  (beaglebone::usr0   ) out lo\n")
	for _, p := range pins {
		if p.Mux != "" {
			create(k.layout.muxPath(p.Mux), muxDump(p.Mux, 0x27))
		}
		if p.IsLED() {
			create(k.layout.ledPath(p.LED, "brightness"), "0\n")
			create(k.layout.ledPath(p.LED, "trigger"), "none [heartbeat]\n")
		}
		if pwm := p.PWM; pwm != nil {
			for _, file := range []string{"request", "period_freq", "polarity", "run", "duty_percent"} {
				create(k.layout.pwmPath(pwm.Path, file), "0\n")
			}
		}
		if a := p.Analog; a != nil {
			create(k.layout.analogPath(a.Index), "0\n")
		}
	}
	return k
}

// muxDump returns the status dump of a mux register.
func muxDump(name string, reg byte) string {
	return fmt.Sprintf("name: %s (0x44e10878/0x878 = 0x%04x), b NA, t NA\n"+
		"mode: OMAP_PIN_OUTPUT | OMAP_MUX_MODE%d\n"+
		"signals: %s | NA | NA | NA | NA | NA | NA | gpio\n", name, reg, reg&0x07, name)
}

func (k *fakeKernel) ReadFile(ctx context.Context, p string) ([]byte, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return afero.ReadFile(k.fs, p)
}

func (k *fakeKernel) WriteFile(ctx context.Context, p string, data []byte) error {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if err, found := k.failWrites[p]; found {
		return err
	}
	if exists, _ := afero.Exists(k.fs, p); !exists {
		return &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	k.journal = append(k.journal, p+"="+string(data))
	content := string(data)
	switch {
	case p == k.layout.exportPath():
		gpio, err := strconv.Atoi(content)
		if err != nil {
			return err
		}
		k.createGPIO(gpio)
	case p == k.layout.unexportPath():
		gpio, err := strconv.Atoi(content)
		if err != nil {
			return err
		}
		k.fs.RemoveAll(path.Dir(k.layout.gpioPath(gpio, "value")))
	case strings.HasPrefix(p, k.layout.MuxDir+"/"):
		reg, err := strconv.ParseUint(content, 16, 8)
		if err != nil {
			return err
		}
		content = muxDump(path.Base(p), byte(reg))
	}
	return afero.WriteFile(k.fs, p, []byte(content), 0o644)
}

func (k *fakeKernel) Exists(ctx context.Context, p string) bool {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	exists, _ := afero.Exists(k.fs, p)
	return exists
}

func (k *fakeKernel) RealPath(p string) string {
	return p
}

// createGPIO creates the resources of an exported GPIO.
func (k *fakeKernel) createGPIO(gpio int) {
	afero.WriteFile(k.fs, k.layout.gpioPath(gpio, "value"), []byte("0\n"), 0o644)
	afero.WriteFile(k.fs, k.layout.gpioPath(gpio, "direction"), []byte("in\n"), 0o644)
	afero.WriteFile(k.fs, k.layout.gpioPath(gpio, "edge"), []byte("none\n"), 0o644)
}

// exportExternally simulates a GPIO exported by another process.
func (k *fakeKernel) exportExternally(gpio int) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.createGPIO(gpio)
}

// setValue simulates an external change of a GPIO value.
func (k *fakeKernel) setValue(t *testing.T, gpio int, value string) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	test.That(t, afero.WriteFile(k.fs, k.layout.gpioPath(gpio, "value"), []byte(value+"\n"), 0o644), test.ShouldBeNil)
}

// setContent replaces the content of a resource.
func (k *fakeKernel) setContent(t *testing.T, p, content string) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	test.That(t, afero.WriteFile(k.fs, p, []byte(content), 0o644), test.ShouldBeNil)
}

// content returns the trimmed content of a resource.
func (k *fakeKernel) content(t *testing.T, p string) string {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	data, err := afero.ReadFile(k.fs, p)
	test.That(t, err, test.ShouldBeNil)
	return strings.TrimSpace(string(data))
}

// failWrite makes all writes to the given resource fail.
func (k *fakeKernel) failWrite(p string, err error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.failWrites[p] = err
}

// writes returns the journal entries below the given directory,
// relative to that directory, and clears the journal.
func (k *fakeKernel) writes(dir string) []string {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	var result []string
	for _, entry := range k.journal {
		if strings.HasPrefix(entry, dir+"/") {
			result = append(result, strings.TrimPrefix(entry, dir+"/"))
		}
	}
	return result
}

// reset clears the journal.
func (k *fakeKernel) reset() {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.journal = nil
}

// newTestBoard creates a board on a fake kernel, using polled edge sources.
func newTestBoard(t *testing.T) (Board, *fakeKernel, *monitor.Tracker) {
	k := newFakeKernel(t, testPins)
	tracker := monitor.NewTracker()
	b, err := New(Config{Pins: testPins}, Dependencies{
		Logger:  zerolog.Nop(),
		FS:      k,
		Tracker: tracker,
		Opener:  monitor.NewPollOpener(k, time.Millisecond),
	})
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() {
		b.Close(context.Background())
		tracker.KillAll()
	})
	return b, k, tracker
}
