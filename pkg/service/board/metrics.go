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
	"github.com/binkynet/PinWorker/pkg/metrics"
)

const (
	subSystem = "board"
)

var (
	// Total number of pin configurations per pin
	configureTotal = metrics.MustRegisterCounterVec(subSystem,
		"configure_total",
		"Total number of pin configurations per pin",
		"pin")
	// Total number of failed pin configurations per pin
	configureErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"configure_errors_total",
		"Total number of failed pin configurations per pin",
		"pin")
	// Total number of PWM writes per channel
	pwmWritesTotal = metrics.MustRegisterCounterVec(subSystem,
		"pwm_writes_total",
		"Total number of PWM writes per channel",
		"channel")
	// Total number of PWM writes rejected because of a different owner
	pwmConflictsTotal = metrics.MustRegisterCounterVec(subSystem,
		"pwm_conflicts_total",
		"Total number of PWM writes rejected because of a different owner",
		"channel")
	// Last written duty cycle (percent) per owned channel
	pwmDutyGauge = metrics.MustRegisterGaugeVec(subSystem,
		"pwm_duty_percent",
		"Last written duty cycle (percent) per owned channel",
		"channel")
	// Total number of interrupt events delivered per pin
	interruptEventsTotal = metrics.MustRegisterCounterVec(subSystem,
		"interrupt_events_total",
		"Total number of interrupt events delivered per pin",
		"pin")
	// Number of attached interrupt sessions
	interruptSessionsGauge = metrics.MustRegisterGauge(subSystem,
		"interrupt_sessions",
		"Number of attached interrupt sessions")
	// Total number of digital & analog I/O failures per operation
	ioErrorsTotal = metrics.MustRegisterCounterVec(subSystem,
		"io_errors_total",
		"Total number of digital & analog I/O failures per operation",
		"operation")
)
