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

	"github.com/pkg/errors"
)

var (
	// ConfigurationError is caused when a pin lacks the requested capability
	// or a request has invalid arguments.
	ConfigurationError   = errors.New("configuration error")
	IsConfigurationError = isErrorFunc(ConfigurationError)
	// ResourceConflictError is caused when a GPIO, PWM channel or interrupt
	// session is already owned by a different caller.
	ResourceConflictError = errors.New("resource conflict")
	IsResourceConflict    = isErrorFunc(ResourceConflictError)
	// IOFailureError is caused when a kernel resource cannot be read or written.
	IOFailureError = errors.New("io failure")
	IsIOFailure    = isErrorFunc(IOFailureError)
	// ParseFailureError is caused when mux state text has an unexpected shape.
	ParseFailureError = errors.New("parse failure")
	IsParseFailure    = isErrorFunc(ParseFailureError)
	// ProcessFailureError is caused when a monitor task cannot be started
	// or died unexpectedly.
	ProcessFailureError = errors.New("process failure")
	IsProcessFailure    = isErrorFunc(ProcessFailureError)

	maskAny = errors.WithStack
)

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}

// AnalogReadError is returned when a raw analog sample cannot be converted.
// Its cause is IOFailureError.
type AnalogReadError struct {
	// Key of the pin
	Pin string
	// Raw text read from the sample resource
	Raw string
	// Computed value (NaN when the raw text is not a number)
	Value float64
}

// Error implements error.
func (e *AnalogReadError) Error() string {
	return fmt.Sprintf("invalid analog sample '%s' of %s (value %v): %s", e.Raw, e.Pin, e.Value, IOFailureError.Error())
}

// Cause returns IOFailureError.
func (e *AnalogReadError) Cause() error {
	return IOFailureError
}

// Unwrap returns IOFailureError.
func (e *AnalogReadError) Unwrap() error {
	return IOFailureError
}

// ioFailure wraps the given error as an IOFailureError.
func ioFailure(err error, format string, args ...interface{}) error {
	return errors.Wrapf(IOFailureError, "%s: %v", fmt.Sprintf(format, args...), err)
}
