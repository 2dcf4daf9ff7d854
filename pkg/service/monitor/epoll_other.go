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

//go:build !linux

package monitor

import (
	"context"

	"github.com/pkg/errors"

	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

// NewEpollOpener returns an Opener that always fails, since epoll
// is only available on linux.
func NewEpollOpener(fs sysfs.FS) Opener {
	return func(ctx context.Context, req Request) (EdgeSource, error) {
		return nil, errors.New("edge detection using epoll is only supported on linux")
	}
}
