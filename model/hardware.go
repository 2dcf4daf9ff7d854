package model

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// Highest mux function number supported by the mux register
	MaxMuxFunction = 7
)

// PWMDescriptor holds the PWM capability of a pin.
type PWMDescriptor struct {
	// Name of the PWM channel resource (directory under the PWM class)
	Path string `json:"path" yaml:"path"`
	// Human readable name of the channel (e.g. "EHRPWM1A")
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Mux function that routes the PWM channel to the pin
	MuxMode int `json:"muxmode" yaml:"muxmode"`
}

// AnalogDescriptor holds the analog input capability of a pin.
type AnalogDescriptor struct {
	// Zero based index of the analog input channel
	Index int `json:"index" yaml:"index"`
	// Raw samples are divided by this value
	Scale float64 `json:"scale" yaml:"scale"`
}

// Validate the given descriptor, returning nil on ok,
// or an error upon validation issues.
func (d PWMDescriptor) Validate() error {
	if d.Path == "" {
		return errors.Wrap(ValidationError, "Path is empty")
	}
	if d.MuxMode < 0 || d.MuxMode > MaxMuxFunction {
		return errors.Wrapf(ValidationError, "MuxMode of '%s' out of range [0..%d], got %d", d.Path, MaxMuxFunction, d.MuxMode)
	}
	return nil
}

// Validate the given descriptor, returning nil on ok,
// or an error upon validation issues.
func (d AnalogDescriptor) Validate() error {
	if d.Index < 0 {
		return errors.Wrapf(ValidationError, "Index must be >= 0, got %d", d.Index)
	}
	if d.Scale <= 0 || math.IsNaN(d.Scale) || math.IsInf(d.Scale, 0) {
		return errors.Wrapf(ValidationError, "Scale must be a positive number, got %v", d.Scale)
	}
	return nil
}
