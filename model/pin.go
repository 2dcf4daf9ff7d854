package model

// PinDescriptor describes a single header pin of the board.
// Descriptors are supplied by the pin table and never modified.
type PinDescriptor struct {
	// Unique key of the pin (e.g. "P9_14")
	Key string `json:"key" yaml:"key"`
	// Human readable name of the pin
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Name of the mux-register resource of this pin.
	// Empty if the pin cannot be muxed.
	Mux string `json:"mux,omitempty" yaml:"mux,omitempty"`
	// GPIO number of the pin, -1 if the pin has no GPIO function.
	GPIO int `json:"gpio" yaml:"gpio"`
	// Optional LED alias. If set, GPIO operations are bound to the LED
	// class device with this name instead of the GPIO export.
	LED string `json:"led,omitempty" yaml:"led,omitempty"`
	// PWM capability of the pin (if any)
	PWM *PWMDescriptor `json:"pwm,omitempty" yaml:"pwm,omitempty"`
	// Analog input capability of the pin (if any)
	Analog *AnalogDescriptor `json:"analog,omitempty" yaml:"analog,omitempty"`
}

// HasGPIO returns true if the pin has a GPIO function.
func (p PinDescriptor) HasGPIO() bool {
	return p.GPIO >= 0
}

// IsLED returns true if the pin is aliased to an LED class device.
func (p PinDescriptor) IsLED() bool {
	return p.LED != ""
}

// String returns the key of the pin.
func (p PinDescriptor) String() string {
	return p.Key
}
