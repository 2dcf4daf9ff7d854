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

package monitor

import (
	"context"

	"github.com/pkg/errors"
)

// Edge selects the transitions that trigger an interrupt.
type Edge string

const (
	EdgeNone    Edge = "none"
	EdgeRising  Edge = "rising"
	EdgeFalling Edge = "falling"
	EdgeBoth    Edge = "both"
)

// Validate returns an error if the edge cannot be used for an interrupt.
func (e Edge) Validate() error {
	switch e {
	case EdgeRising, EdgeFalling, EdgeBoth:
		return nil
	default:
		return errors.Errorf("invalid edge mode '%s'", string(e))
	}
}

// Matches returns true if a transition from old to new value
// is an edge of this kind.
func (e Edge) Matches(oldValue, newValue int) bool {
	if (oldValue != 0) == (newValue != 0) {
		return false
	}
	switch e {
	case EdgeRising:
		return newValue != 0
	case EdgeFalling:
		return newValue == 0
	case EdgeBoth:
		return true
	default:
		return false
	}
}

// Request is the first and only message sent to a monitor task.
type Request struct {
	// Key of the pin being monitored
	Pin string
	// Edge that triggers events
	Edge Edge
	// Path of the GPIO value resource
	ValuePath string
}

// Event is emitted by a monitor task for every edge.
type Event struct {
	// Value of the pin after the edge
	Value int
}

// Exit is emitted exactly once when a monitor task terminates.
type Exit struct {
	// Err is nil when the task was stopped by its owner.
	Err error
}

// EdgeSource blocks on a GPIO value resource.
type EdgeSource interface {
	// Wait blocks until the next edge (or until the context is canceled)
	// and returns the value of the pin after the edge.
	Wait(ctx context.Context) (int, error)
	// Close releases the resources of the source.
	Close() error
}

// Opener creates an EdgeSource for the given request.
type Opener func(ctx context.Context, req Request) (EdgeSource, error)
