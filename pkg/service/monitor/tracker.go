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

package monitor

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Tracker keeps track of all live monitor tasks, so they can be
// terminated together.
type Tracker struct {
	mutex  sync.Mutex
	lastID uint64
	tasks  map[uint64]*Task
}

var (
	defaultTracker = NewTracker()
)

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		tasks: make(map[uint64]*Task),
	}
}

// DefaultTracker returns the process wide tracker.
func DefaultTracker() *Tracker {
	return defaultTracker
}

// Start a new monitor task.
// The task waits for its request before opening an edge source.
func (tr *Tracker) Start(log zerolog.Logger, opener Opener) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	tr.mutex.Lock()
	tr.lastID++
	t := &Task{
		id:       tr.lastID,
		tracker:  tr,
		cancel:   cancel,
		requests: make(chan Request, 1),
		ready:    make(chan struct{}),
		events:   make(chan Event, eventQueueSize),
		exit:     make(chan Exit, 1),
		done:     make(chan struct{}),
	}
	t.log = log.With().Uint64("task", t.id).Logger()
	tr.tasks[t.id] = t
	liveTasksGauge.Set(float64(len(tr.tasks)))
	tr.mutex.Unlock()

	go t.run(ctx, opener)
	return t
}

// Count returns the number of live tasks.
func (tr *Tracker) Count() int {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	return len(tr.tasks)
}

// KillAll terminates all live tasks and waits until they are done.
func (tr *Tracker) KillAll() {
	tr.mutex.Lock()
	tasks := make([]*Task, 0, len(tr.tasks))
	for _, t := range tr.tasks {
		tasks = append(tasks, t)
	}
	tr.mutex.Unlock()

	for _, t := range tasks {
		t.Kill()
	}
}

// remove the given task from the tracker.
func (tr *Tracker) remove(t *Task) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	delete(tr.tasks, t.id)
	liveTasksGauge.Set(float64(len(tr.tasks)))
}
