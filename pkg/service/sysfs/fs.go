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
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FS provides access to kernel exposed resources (sysfs, debugfs).
// All resources are small text values that are read and written as a whole.
type FS interface {
	// ReadFile reads the entire content of the resource at given path.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile writes the given data to the existing resource at given path.
	WriteFile(ctx context.Context, path string, data []byte) error
	// Exists returns true if a resource exists at the given path.
	Exists(ctx context.Context, path string) bool
	// RealPath returns the path of the resource on the host filesystem.
	RealPath(path string) string
}

// Config of the resource filesystem.
type Config struct {
	// Root directory that all resource paths are relative to.
	// Empty or "/" uses the host root.
	Root string
	// Timeout applied to every single read/write.
	// Zero means no timeout, operations then block until the
	// kernel responds.
	Timeout time.Duration
}

type fs struct {
	Config
	afs afero.Fs
}

// NewOS creates an FS on top of the host filesystem.
func NewOS(conf Config) FS {
	var afs afero.Fs = afero.NewOsFs()
	if conf.Root != "" && conf.Root != "/" {
		afs = afero.NewBasePathFs(afs, conf.Root)
	}
	return New(conf, afs)
}

// New creates an FS on top of the given afero filesystem.
func New(conf Config, afs afero.Fs) FS {
	return &fs{
		Config: conf,
		afs:    afs,
	}
}

// ReadFile reads the entire content of the resource at given path.
func (f *fs) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return do(ctx, f.Timeout, func() ([]byte, error) {
		return afero.ReadFile(f.afs, path)
	})
}

// WriteFile writes the given data to the existing resource at given path.
// Resources are never created.
func (f *fs) WriteFile(ctx context.Context, path string, data []byte) error {
	_, err := do(ctx, f.Timeout, func() (struct{}, error) {
		file, err := f.afs.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
		if err != nil {
			return struct{}{}, err
		}
		if _, err := file.Write(data); err != nil {
			file.Close()
			return struct{}{}, err
		}
		return struct{}{}, file.Close()
	})
	return err
}

// Exists returns true if a resource exists at the given path.
func (f *fs) Exists(ctx context.Context, path string) bool {
	found, err := do(ctx, f.Timeout, func() (bool, error) {
		return afero.Exists(f.afs, path)
	})
	return err == nil && found
}

// RealPath returns the path of the resource on the host filesystem.
func (f *fs) RealPath(path string) string {
	if bp, ok := f.afs.(*afero.BasePathFs); ok {
		if hostPath, err := bp.RealPath(path); err == nil {
			return hostPath
		}
	}
	return path
}

type result[T any] struct {
	value T
	err   error
}

// do runs the given operation, honoring the context and given timeout.
// A stalled operation keeps running in the background after the caller
// has been released.
func do[T any](ctx context.Context, timeout time.Duration, op func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, errors.WithStack(err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if ctx.Done() == nil {
		return op()
	}
	results := make(chan result[T], 1)
	go func() {
		v, err := op()
		results <- result[T]{value: v, err: err}
	}()
	select {
	case r := <-results:
		return r.value, r.err
	case <-ctx.Done():
		return zero, errors.Wrap(ctx.Err(), "kernel resource did not respond")
	}
}
