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

package pintable

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/binkynet/PinWorker/model"
)

const (
	// DefaultDir is the directory containing the pin tables of all supported boards.
	DefaultDir = "/etc/pinworker"
)

var (
	maskAny = errors.WithStack
)

// rawPin is the YAML form of a pin descriptor.
// A missing gpio means the pin has no GPIO.
type rawPin struct {
	Key    string                  `yaml:"key"`
	Name   string                  `yaml:"name"`
	Mux    string                  `yaml:"mux"`
	GPIO   *int                    `yaml:"gpio"`
	LED    string                  `yaml:"led"`
	PWM    *model.PWMDescriptor    `yaml:"pwm"`
	Analog *model.AnalogDescriptor `yaml:"analog"`
}

type rawTable struct {
	Board string           `yaml:"board"`
	Pins  []rawPin         `yaml:"pins"`
	Setup []model.PinSetup `yaml:"setup"`
}

// DefaultPath returns the path of the pin table of the given board.
func DefaultPath(board string) string {
	return filepath.Join(DefaultDir, fmt.Sprintf("%s.yaml", board))
}

// Load reads & validates the pin table at the given path.
func Load(fs afero.Fs, path string) (model.PinTable, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return model.PinTable{}, errors.Wrapf(err, "Failed to read pin table %s", path)
	}
	table, err := Parse(data)
	if err != nil {
		return model.PinTable{}, errors.Wrapf(err, "Invalid pin table %s", path)
	}
	return table, nil
}

// Parse decodes & validates a pin table in YAML form.
// Unknown fields are rejected.
func Parse(data []byte) (model.PinTable, error) {
	var raw rawTable
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return model.PinTable{}, errors.Wrap(model.ValidationError, err.Error())
	}
	table := model.PinTable{
		Board: raw.Board,
		Setup: raw.Setup,
	}
	for _, p := range raw.Pins {
		gpio := -1
		if p.GPIO != nil {
			gpio = *p.GPIO
		}
		table.Pins = append(table.Pins, model.PinDescriptor{
			Key:    p.Key,
			Name:   p.Name,
			Mux:    p.Mux,
			GPIO:   gpio,
			LED:    p.LED,
			PWM:    p.PWM,
			Analog: p.Analog,
		})
	}
	if err := table.Validate(); err != nil {
		return model.PinTable{}, maskAny(err)
	}
	return table, nil
}
