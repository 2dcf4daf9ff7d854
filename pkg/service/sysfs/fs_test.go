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

package sysfs

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.viam.com/test"
)

// stallFs blocks every Open until released.
type stallFs struct {
	afero.Fs
	release chan struct{}
}

func (s stallFs) Open(name string) (afero.File, error) {
	<-s.release
	return s.Fs.Open(name)
}

func TestReadWrite(t *testing.T) {
	ctx := context.Background()
	afs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(afs, "/sys/class/gpio/gpio60/value", []byte("0\n"), 0o644), test.ShouldBeNil)
	f := New(Config{}, afs)

	test.That(t, f.Exists(ctx, "/sys/class/gpio/gpio60/value"), test.ShouldBeTrue)
	test.That(t, f.Exists(ctx, "/sys/class/gpio/gpio61/value"), test.ShouldBeFalse)

	test.That(t, f.WriteFile(ctx, "/sys/class/gpio/gpio60/value", []byte("1")), test.ShouldBeNil)
	data, err := f.ReadFile(ctx, "/sys/class/gpio/gpio60/value")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "1")

	// Resources are never created
	err = f.WriteFile(ctx, "/sys/class/gpio/gpio61/value", []byte("1"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, f.Exists(ctx, "/sys/class/gpio/gpio61/value"), test.ShouldBeFalse)

	_, err = f.ReadFile(ctx, "/sys/class/gpio/gpio61/value")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, f.RealPath("/sys/class/gpio"), test.ShouldEqual, "/sys/class/gpio")
}

func TestRoot(t *testing.T) {
	f := NewOS(Config{Root: "/tmp/board"})
	test.That(t, f.RealPath("/sys/class/gpio/export"), test.ShouldEqual, "/tmp/board/sys/class/gpio/export")
}

func TestCanceledContext(t *testing.T) {
	afs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(afs, "/a", []byte("x"), 0o644), test.ShouldBeNil)
	f := New(Config{}, afs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.ReadFile(ctx, "/a")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, f.WriteFile(ctx, "/a", []byte("y")), test.ShouldNotBeNil)
}

func TestTimeout(t *testing.T) {
	afs := afero.NewMemMapFs()
	test.That(t, afero.WriteFile(afs, "/a", []byte("x"), 0o644), test.ShouldBeNil)
	release := make(chan struct{})
	defer close(release)
	f := New(Config{Timeout: 20 * time.Millisecond}, stallFs{Fs: afs, release: release})

	start := time.Now()
	_, err := f.ReadFile(context.Background(), "/a")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "did not respond")
	test.That(t, time.Since(start) < time.Second, test.ShouldBeTrue)
}
