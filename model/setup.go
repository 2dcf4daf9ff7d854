package model

import "github.com/pkg/errors"

// PinSetup holds the startup configuration of a single pin.
type PinSetup struct {
	// Key of the pin
	Pin string `json:"pin" yaml:"pin"`
	// Direction of the pin (out|in|in_pullup)
	Direction string `json:"direction" yaml:"direction"`
	// Mux function. Defaults to the GPIO function when nil.
	Function *int `json:"function,omitempty" yaml:"function,omitempty"`
	// Pull resistor (pulldown|pullup|disabled). Derived from direction when empty.
	Pullup string `json:"pullup,omitempty" yaml:"pullup,omitempty"`
	// Slew rate (fast|slow). Defaults to fast.
	Slew string `json:"slew,omitempty" yaml:"slew,omitempty"`
	// Initial level (0|1) of an output pin.
	Value *int `json:"value,omitempty" yaml:"value,omitempty"`
	// Edge (rising|falling|both) of an interrupt attached to an input pin.
	Interrupt string `json:"interrupt,omitempty" yaml:"interrupt,omitempty"`
}

// Validate the given setup, returning nil on ok,
// or an error upon validation issues.
func (s PinSetup) Validate() error {
	if s.Pin == "" {
		return errors.Wrap(ValidationError, "Pin is empty")
	}
	switch s.Direction {
	case "out", "in", "in_pullup":
	default:
		return errors.Wrapf(ValidationError, "Invalid direction '%s' of '%s'", s.Direction, s.Pin)
	}
	if f := s.Function; f != nil && (*f < 0 || *f > MaxMuxFunction) {
		return errors.Wrapf(ValidationError, "Function of '%s' out of range [0..%d], got %d", s.Pin, MaxMuxFunction, *f)
	}
	switch s.Pullup {
	case "", "pulldown", "pullup", "disabled":
	default:
		return errors.Wrapf(ValidationError, "Invalid pullup '%s' of '%s'", s.Pullup, s.Pin)
	}
	switch s.Slew {
	case "", "fast", "slow":
	default:
		return errors.Wrapf(ValidationError, "Invalid slew '%s' of '%s'", s.Slew, s.Pin)
	}
	if v := s.Value; v != nil {
		if s.Direction != "out" {
			return errors.Wrapf(ValidationError, "Value of '%s' requires direction out", s.Pin)
		}
		if *v != 0 && *v != 1 {
			return errors.Wrapf(ValidationError, "Value of '%s' must be 0 or 1, got %d", s.Pin, *v)
		}
	}
	switch s.Interrupt {
	case "":
	case "rising", "falling", "both":
		if s.Direction == "out" {
			return errors.Wrapf(ValidationError, "Interrupt of '%s' requires an input direction", s.Pin)
		}
	default:
		return errors.Wrapf(ValidationError, "Invalid interrupt edge '%s' of '%s'", s.Interrupt, s.Pin)
	}
	return nil
}
