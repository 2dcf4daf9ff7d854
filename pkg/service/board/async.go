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

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/mux"
)

// AsyncBoard offers the operations of a Board in non-blocking form.
// Every operation returns immediately and invokes its callback
// exactly once when the operation has completed.
// A nil callback is allowed.
type AsyncBoard interface {
	ConfigurePinAsync(ctx context.Context, key string, direction mux.Direction, callback func(error), opts ...PinOption)
	QueryMuxStateAsync(ctx context.Context, key string, callback func(mux.Value, error))
	ReadDigitalAsync(ctx context.Context, key string, callback func(Level, error))
	WriteDigitalAsync(ctx context.Context, key string, level Level, callback func(error))
	ReadAnalogAsync(ctx context.Context, key string, callback func(float64, error))
	WritePWMAsync(ctx context.Context, key string, duty float64, freqHz uint, callback func(error))
	AttachEdgeInterruptAsync(ctx context.Context, key string, edge monitor.Edge, handler InterruptHandler, notify NotifyFunc, callback func(error))
	DetachEdgeInterruptAsync(ctx context.Context, key string, callback func(bool, error))
	ShiftOutAsync(ctx context.Context, dataKey, clockKey string, order BitOrder, value byte, callback func(error))
	ReleasePinAsync(ctx context.Context, key string, callback func(error))
}

// runAsync runs op in a new goroutine and passes its result to callback.
func runAsync[T any](op func() (T, error), callback func(T, error)) {
	go func() {
		result, err := callOp(op)
		if callback != nil {
			callback(result, err)
		}
	}()
}

// runAsyncErr is runAsync for operations that only return an error.
func runAsyncErr(op func() error, callback func(error)) {
	runAsync(func() (struct{}, error) {
		return struct{}{}, op()
	}, func(_ struct{}, err error) {
		if callback != nil {
			callback(err)
		}
	})
}

// callOp invokes op, turning a panic into an error.
func callOp[T any](op func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("operation panicked: %v", r)
		}
	}()
	return op()
}

func (b *board) ConfigurePinAsync(ctx context.Context, key string, direction mux.Direction, callback func(error), opts ...PinOption) {
	runAsyncErr(func() error {
		return b.ConfigurePin(ctx, key, direction, opts...)
	}, callback)
}

func (b *board) QueryMuxStateAsync(ctx context.Context, key string, callback func(mux.Value, error)) {
	runAsync(func() (mux.Value, error) {
		return b.QueryMuxState(ctx, key)
	}, callback)
}

func (b *board) ReadDigitalAsync(ctx context.Context, key string, callback func(Level, error)) {
	runAsync(func() (Level, error) {
		return b.ReadDigital(ctx, key)
	}, callback)
}

func (b *board) WriteDigitalAsync(ctx context.Context, key string, level Level, callback func(error)) {
	runAsyncErr(func() error {
		return b.WriteDigital(ctx, key, level)
	}, callback)
}

func (b *board) ReadAnalogAsync(ctx context.Context, key string, callback func(float64, error)) {
	runAsync(func() (float64, error) {
		return b.ReadAnalog(ctx, key)
	}, callback)
}

func (b *board) WritePWMAsync(ctx context.Context, key string, duty float64, freqHz uint, callback func(error)) {
	runAsyncErr(func() error {
		return b.WritePWM(ctx, key, duty, freqHz)
	}, callback)
}

func (b *board) AttachEdgeInterruptAsync(ctx context.Context, key string, edge monitor.Edge, handler InterruptHandler, notify NotifyFunc, callback func(error)) {
	runAsyncErr(func() error {
		return b.AttachEdgeInterrupt(ctx, key, edge, handler, notify)
	}, callback)
}

func (b *board) DetachEdgeInterruptAsync(ctx context.Context, key string, callback func(bool, error)) {
	runAsync(func() (bool, error) {
		return b.DetachEdgeInterrupt(ctx, key)
	}, callback)
}

func (b *board) ShiftOutAsync(ctx context.Context, dataKey, clockKey string, order BitOrder, value byte, callback func(error)) {
	runAsyncErr(func() error {
		return b.ShiftOut(ctx, dataKey, clockKey, order, value)
	}, callback)
}

func (b *board) ReleasePinAsync(ctx context.Context, key string, callback func(error)) {
	runAsyncErr(func() error {
		return b.ReleasePin(ctx, key)
	}, callback)
}
