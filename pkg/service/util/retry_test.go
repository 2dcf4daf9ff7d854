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
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.viam.com/test"
)

func TestRetryUntilSuccess(t *testing.T) {
	calls := 0
	err := RetryUntilSuccess(context.Background(), zerolog.Nop(), "test", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calls, test.ShouldEqual, 3)
}

func TestRetryUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryUntilSuccess(ctx, zerolog.Nop(), "test", func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("failing")
	})
	test.That(t, err, test.ShouldEqual, context.Canceled)
	test.That(t, calls, test.ShouldEqual, 2)
}
