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
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/binkynet/PinWorker/pkg/service/mux"
)

func TestReadAnalog(t *testing.T) {
	ctx := context.Background()
	b, k, _ := newTestBoard(t)
	layout := DefaultLayout()

	k.setContent(t, layout.analogPath(0), "2048\n")
	value, err := b.ReadAnalog(ctx, "P9_39")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldAlmostEqual, 0.5)

	k.setContent(t, layout.analogPath(0), "busy\n")
	_, err = b.ReadAnalog(ctx, "P9_39")
	test.That(t, IsIOFailure(err), test.ShouldBeTrue)
	var readErr *AnalogReadError
	test.That(t, errors.As(err, &readErr), test.ShouldBeTrue)
	test.That(t, readErr.Pin, test.ShouldEqual, "P9_39")
	test.That(t, readErr.Raw, test.ShouldEqual, "busy")
	test.That(t, math.IsNaN(readErr.Value), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "busy")

	_, err = b.ReadAnalog(ctx, "P9_12")
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
}

func TestDigitalIOFailure(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newTestBoard(t)

	// GPIO never exported
	_, err := b.ReadDigital(ctx, "P9_12")
	test.That(t, IsIOFailure(err), test.ShouldBeTrue)
	err = b.WriteDigital(ctx, "P9_12", High)
	test.That(t, IsIOFailure(err), test.ShouldBeTrue)

	// Pin without GPIO
	_, err = b.ReadDigital(ctx, "P9_39")
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
}

func TestShiftOut(t *testing.T) {
	ctx := context.Background()
	b, k, _ := newTestBoard(t)
	layout := DefaultLayout()

	test.That(t, b.ConfigurePin(ctx, "P9_21", mux.Output), test.ShouldBeNil)
	test.That(t, b.ConfigurePin(ctx, "P9_22", mux.Output), test.ShouldBeNil)

	expected := func(bits ...string) []string {
		var result []string
		for _, bit := range bits {
			result = append(result, "gpio3/value="+bit, "gpio2/value=1", "gpio2/value=0")
		}
		return result
	}

	k.reset()
	test.That(t, b.ShiftOut(ctx, "P9_21", "P9_22", MSBFirst, 0xA6), test.ShouldBeNil)
	test.That(t, k.writes(layout.GPIODir), test.ShouldResemble, expected("1", "0", "1", "0", "0", "1", "1", "0"))

	k.reset()
	test.That(t, b.ShiftOut(ctx, "P9_21", "P9_22", LSBFirst, 0xA6), test.ShouldBeNil)
	test.That(t, k.writes(layout.GPIODir), test.ShouldResemble, expected("0", "1", "1", "0", "0", "1", "0", "1"))

	err := b.ShiftOut(ctx, "P9_21", "P9_99", MSBFirst, 1)
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
}
