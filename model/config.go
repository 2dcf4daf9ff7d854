package model

import (
	"github.com/pkg/errors"
)

// PinTable holds the pinout of a single board.
type PinTable struct {
	// Name of the board this table describes
	Board string `json:"board,omitempty" yaml:"board,omitempty"`
	// All pins of the board
	Pins []PinDescriptor `json:"pins,omitempty" yaml:"pins,omitempty"`
	// Pin configurations applied at startup
	Setup []PinSetup `json:"setup,omitempty" yaml:"setup,omitempty"`
}

// PinByKey returns the pin with given key.
// Return false if not found.
func (t PinTable) PinByKey(key string) (PinDescriptor, bool) {
	for _, p := range t.Pins {
		if p.Key == key {
			return p, true
		}
	}
	return PinDescriptor{}, false
}

// Validate the given table, returning nil on ok,
// or an error upon validation issues.
func (t PinTable) Validate() error {
	keys := make(map[string]struct{}, len(t.Pins))
	for _, p := range t.Pins {
		if p.Key == "" {
			return errors.Wrap(ValidationError, "Pin with empty key")
		}
		if _, found := keys[p.Key]; found {
			return errors.Wrapf(ValidationError, "Duplicate pin '%s'", p.Key)
		}
		keys[p.Key] = struct{}{}
		if p.IsLED() && !p.HasGPIO() {
			return errors.Wrapf(ValidationError, "LED pin '%s' has no GPIO", p.Key)
		}
		if pwm := p.PWM; pwm != nil {
			if err := pwm.Validate(); err != nil {
				return errors.Wrapf(ValidationError, "Error in PWM of '%s': %s", p.Key, err.Error())
			}
		}
		if analog := p.Analog; analog != nil {
			if err := analog.Validate(); err != nil {
				return errors.Wrapf(ValidationError, "Error in Analog of '%s': %s", p.Key, err.Error())
			}
		}
	}
	for _, s := range t.Setup {
		if err := s.Validate(); err != nil {
			return maskAny(err)
		}
		if _, found := keys[s.Pin]; !found {
			return errors.Wrapf(ValidationError, "Pin '%s' not found in setup", s.Pin)
		}
	}
	return nil
}
