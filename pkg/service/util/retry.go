// Copyright 2021 Ewout Prangsma
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

package util

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// Delay before the first retry
	InitialRetryDelay = time.Millisecond * 10
	// Upper limit of the delay between retries
	MaxRetryDelay = time.Second * 5
)

// RetryUntilSuccess calls the given callback until it succeeds
// or the given context is canceled.
// The delay between calls grows with every failure.
func RetryUntilSuccess(ctx context.Context, log zerolog.Logger, description string, cb func() error) error {
	delay := InitialRetryDelay
	for {
		if err := ctx.Err(); err != nil {
			// Context canceled
			return err
		}
		err := cb()
		if err == nil {
			return nil
		}
		log.Debug().Err(err).Dur("delay", delay).Msgf("%s failed", description)
		select {
		case <-ctx.Done():
			// Context canceled
			log.Info().Msgf("Stopping %s; context canceled", description)
			return ctx.Err()
		case <-time.After(delay):
			// Continue
		}
		delay = time.Duration(float64(delay) * 1.5)
		if delay > MaxRetryDelay {
			delay = MaxRetryDelay
		}
	}
}
