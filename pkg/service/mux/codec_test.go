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
	"testing"

	"github.com/samber/lo"
	"go.viam.com/test"
)

// statusDump builds a debugfs status dump for the given register value.
func statusDump(name string, reg byte) string {
	return fmt.Sprintf("name: %s (0x44e10998/0x998 = 0x%04x), b NA, t NA\n"+
		"mode: OMAP_PIN_OUTPUT | OMAP_MUX_MODE%d\n"+
		"signals: mcasp0_axr0 | ehrpwm0_tripzone | NA | spi1_d1 | mmc2_sdcd_mux1 | NA | NA | gpio3_16\n",
		name, reg, reg&functionMask)
}

func TestEncodeDefaults(t *testing.T) {
	t.Run("input defaults to pulldown", func(t *testing.T) {
		s := Resolve(NewSetting(Input))
		test.That(t, s.Pullup, test.ShouldEqual, PullDown)
		test.That(t, s.Slew, test.ShouldEqual, SlewFast)
		test.That(t, *s.Function, test.ShouldEqual, GPIOFunction)

		v, err := Encode(NewSetting(Input))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, byte(0x27))
	})
	t.Run("output defaults to disabled", func(t *testing.T) {
		s := Resolve(NewSetting(Output))
		test.That(t, s.Pullup, test.ShouldEqual, PullDisabled)

		v, err := Encode(NewSetting(Output))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, byte(0x0f))
	})
	t.Run("input pullup forces pullup", func(t *testing.T) {
		s := Resolve(NewSetting(InputPullup))
		test.That(t, s.Pullup, test.ShouldEqual, PullUp)

		v, err := Encode(NewSetting(InputPullup))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, byte(0x37))
	})
	t.Run("explicit pullup overrides direction", func(t *testing.T) {
		s := NewSetting(Input)
		s.Pullup = PullDisabled
		v, err := Encode(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, byte(0x2f))
	})
	t.Run("mode zero is kept", func(t *testing.T) {
		s := NewSetting(Output)
		s.Function = lo.ToPtr(0)
		s.Slew = SlewSlow
		v, err := Encode(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, byte(0x48))
		test.That(t, s.IsGPIO(), test.ShouldBeFalse)
	})
}

func TestZeroSettingSelectsGPIO(t *testing.T) {
	s := Setting{Direction: Input}
	test.That(t, s.IsGPIO(), test.ShouldBeTrue)
	test.That(t, s.String(), test.ShouldContainSubstring, "modedefault")

	v, err := Encode(s)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, byte(0x27))
	test.That(t, s.Function, test.ShouldBeNil)

	v, err = Encode(Setting{Direction: Output})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, byte(0x0f))
}

func TestEncodeInvalid(t *testing.T) {
	s := NewSetting(Output)
	s.Function = lo.ToPtr(8)
	_, err := Encode(s)
	test.That(t, err, test.ShouldNotBeNil)

	s = NewSetting(Output)
	s.Pullup = Pullup("sideways")
	_, err = Encode(s)
	test.That(t, err, test.ShouldNotBeNil)

	s = NewSetting(Direction("up"))
	_, err = Encode(s)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, FormatRegister(0x27), test.ShouldEqual, "27")
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	for _, dir := range []Direction{Output, Input} {
		for fn := 0; fn <= GPIOFunction; fn++ {
			for _, pull := range []Pullup{PullDown, PullUp, PullDisabled} {
				for _, slew := range []Slew{SlewFast, SlewSlow} {
					s := Setting{Direction: dir, Function: lo.ToPtr(fn), Pullup: pull, Slew: slew}
					reg, err := Encode(s)
					test.That(t, err, test.ShouldBeNil)

					v, err := Decode("P9_14", statusDump("gpmc_a2", reg))
					test.That(t, err, test.ShouldBeNil)
					test.That(t, v.Pin, test.ShouldEqual, "P9_14")
					test.That(t, v.Register, test.ShouldEqual, int(reg))
					test.That(t, v.Function, test.ShouldEqual, fn)
					test.That(t, v.Pullup, test.ShouldEqual, pull)
					test.That(t, v.Slew, test.ShouldEqual, slew)
					test.That(t, v.Setting().Direction, test.ShouldEqual, dir)
					test.That(t, *v.Setting().Function, test.ShouldEqual, fn)
				}
			}
		}
	}
}

func TestDecodeExample(t *testing.T) {
	raw := "name: mcasp0_axr0.spi1_d1 (0x44e10998/0x998 = 0x0023), b NA, t NA\n" +
		"mode: OMAP_PIN_OUTPUT | OMAP_MUX_MODE3\n" +
		"signals: mcasp0_axr0 | ehrpwm0_tripzone | NA | spi1_d1 | mmc2_sdcd_mux1 | NA | NA | gpio3_16\n"
	v, err := Decode("P9_30", raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.Function, test.ShouldEqual, 3)
	test.That(t, v.Register, test.ShouldEqual, 0x23)
	test.That(t, v.Slew, test.ShouldEqual, SlewFast)
	test.That(t, v.Receiver, test.ShouldEqual, ReceiverEnabled)
	test.That(t, v.Pullup, test.ShouldEqual, PullDown)
	test.That(t, v.Options, test.ShouldResemble, []string{
		"mcasp0_axr0", "ehrpwm0_tripzone", "NA", "spi1_d1", "mmc2_sdcd_mux1", "NA", "NA", "gpio3_16",
	})
}

func TestDecodeInvalidPullup(t *testing.T) {
	v, err := Decode("P8_3", statusDump("gpmc_ad6", 0x3f))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pullup")
	test.That(t, v.Pullup, test.ShouldEqual, PullUnknown)
	test.That(t, v.Function, test.ShouldEqual, 7)
	test.That(t, v.Slew, test.ShouldEqual, SlewFast)
	test.That(t, v.Options, test.ShouldHaveLength, 8)
}

func TestDecodePartial(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		v, err := Decode("P8_4", "")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, v, test.ShouldResemble, UnknownValue("P8_4"))
	})
	t.Run("garbage register", func(t *testing.T) {
		raw := "name: foo (0x0 = zz), b NA\nmode: OMAP_PIN_OUTPUT | OMAP_MUX_MODE2\n"
		v, err := Decode("P8_5", raw)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, v.Pin, test.ShouldEqual, "P8_5")
		test.That(t, v.Function, test.ShouldEqual, 2)
		test.That(t, v.Register, test.ShouldEqual, RegisterUnknown)
		test.That(t, v.Slew, test.ShouldEqual, SlewUnknown)
		test.That(t, v.Options, test.ShouldBeNil)
	})
	t.Run("missing mode", func(t *testing.T) {
		raw := "name: foo (0x0 = 0x000f), b NA\n"
		v, err := Decode("P8_6", raw)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, v.Function, test.ShouldEqual, FunctionUnknown)
		test.That(t, v.Register, test.ShouldEqual, 0x0f)
		test.That(t, v.Pullup, test.ShouldEqual, PullDisabled)
	})
}
