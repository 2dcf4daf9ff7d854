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
	"sync/atomic"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/mux"
)

type asyncResult struct {
	value interface{}
	err   error
}

func waitResult(t *testing.T, results chan asyncResult) asyncResult {
	select {
	case r := <-results:
		return r
	case <-time.After(time.Second * 5):
		t.Fatal("timeout waiting for callback")
		return asyncResult{}
	}
}

func TestAsyncOperations(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newTestBoard(t)
	results := make(chan asyncResult, 16)
	errCallback := func(err error) { results <- asyncResult{err: err} }

	b.ConfigurePinAsync(ctx, "P9_12", mux.Output, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)

	b.WriteDigitalAsync(ctx, "P9_12", High, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)

	b.ReadDigitalAsync(ctx, "P9_12", func(level Level, err error) {
		results <- asyncResult{value: level, err: err}
	})
	r := waitResult(t, results)
	test.That(t, r.err, test.ShouldBeNil)
	test.That(t, r.value, test.ShouldEqual, High)

	b.QueryMuxStateAsync(ctx, "P9_12", func(v mux.Value, err error) {
		results <- asyncResult{value: v.Function, err: err}
	})
	r = waitResult(t, results)
	test.That(t, r.err, test.ShouldBeNil)
	test.That(t, r.value, test.ShouldEqual, mux.GPIOFunction)

	b.WritePWMAsync(ctx, "P9_14", 0.5, 2000, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)

	b.ReadAnalogAsync(ctx, "P9_39", func(v float64, err error) {
		results <- asyncResult{value: v, err: err}
	})
	r = waitResult(t, results)
	test.That(t, r.err, test.ShouldBeNil)
	test.That(t, r.value, test.ShouldEqual, 0.0)

	b.ConfigurePinAsync(ctx, "P9_15", mux.Input, errCallback, WithPullup(mux.PullUp))
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)
	b.AttachEdgeInterruptAsync(ctx, "P9_15", monitor.EdgeRising, func(InterruptEvent) interface{} { return nil }, nil, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)
	b.DetachEdgeInterruptAsync(ctx, "P9_15", func(detached bool, err error) {
		results <- asyncResult{value: detached, err: err}
	})
	r = waitResult(t, results)
	test.That(t, r.err, test.ShouldBeNil)
	test.That(t, r.value, test.ShouldEqual, true)

	b.ConfigurePinAsync(ctx, "P9_21", mux.Output, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)
	b.ConfigurePinAsync(ctx, "P9_22", mux.Output, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)
	b.ShiftOutAsync(ctx, "P9_21", "P9_22", MSBFirst, 0x55, errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)

	b.ReleasePinAsync(ctx, "P9_14", errCallback)
	test.That(t, waitResult(t, results).err, test.ShouldBeNil)
	test.That(t, b.Allocations().PWM, test.ShouldBeEmpty)
}

func TestAsyncCallbackExactlyOnce(t *testing.T) {
	ctx := context.Background()
	b, _, _ := newTestBoard(t)
	var calls int32
	done := make(chan error, 4)

	b.WriteDigitalAsync(ctx, "P9_99", High, func(err error) {
		atomic.AddInt32(&calls, 1)
		done <- err
	})
	select {
	case err := <-done:
		test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
	case <-time.After(time.Second * 5):
		t.Fatal("timeout waiting for callback")
	}
	time.Sleep(time.Millisecond * 20)
	test.That(t, atomic.LoadInt32(&calls), test.ShouldEqual, int32(1))

	// Nil callback is allowed
	b.ReadDigitalAsync(ctx, "P9_99", nil)
}

func TestCallOpRecoversPanic(t *testing.T) {
	_, err := callOp(func() (int, error) {
		panic("boom")
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "boom")
}
