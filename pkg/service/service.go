//    Copyright 2017-2022 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package service

import (
	"context"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/binkynet/PinWorker/model"
	"github.com/binkynet/PinWorker/pkg/service/board"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/mux"
	"github.com/binkynet/PinWorker/pkg/service/util"
)

var (
	maskAny = errors.WithStack
)

type Service interface {
	// Run the worker until the given context is cancelled.
	Run(ctx context.Context) error
	// Board returns the board driven by this service.
	Board() board.Board
	// Status returns the current status of the worker.
	Status() Status
}

// Status of the worker, as exposed by the server.
type Status struct {
	Version      string            `json:"version"`
	Board        string            `json:"board"`
	StartedAt    time.Time         `json:"started_at"`
	Uptime       string            `json:"uptime"`
	SetupDone    bool              `json:"setup_done"`
	SetupErrors  []string          `json:"setup_errors,omitempty"`
	MonitorTasks int               `json:"monitor_tasks"`
	Allocations  board.Allocations `json:"allocations"`
}

type Config struct {
	ProgramVersion string
	// Pin table of the board, including the setup applied at startup
	PinTable model.PinTable
}

type Dependencies struct {
	Logger  zerolog.Logger
	Board   board.Board
	Bridge  bridge.API
	Tracker *monitor.Tracker
}

type service struct {
	Config
	Dependencies

	mutex       sync.Mutex
	startedAt   time.Time
	setupDone   bool
	setupErrors []error
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (Service, error) {
	if deps.Board == nil {
		return nil, errors.New("Board is required")
	}
	if deps.Bridge == nil {
		br, err := bridge.NewVirtualBridge()
		if err != nil {
			return nil, maskAny(err)
		}
		deps.Bridge = br
	}
	if deps.Tracker == nil {
		deps.Tracker = monitor.DefaultTracker()
	}
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	if conf.PinTable.Board != "" {
		deps.Logger = deps.Logger.With().Str("board", conf.PinTable.Board).Logger()
	}
	return &service{
		Config:       conf,
		Dependencies: deps,
		startedAt:    time.Now(),
	}, nil
}

// Board returns the board driven by this service.
func (s *service) Board() board.Board {
	return s.Dependencies.Board
}

// Run applies the pin setup and then waits until the given context
// is canceled, after which all pins are released.
func (s *service) Run(ctx context.Context) error {
	log := s.Logger
	log.Info().Str("version", s.ProgramVersion).Int("pins", len(s.PinTable.Pins)).Msg("Starting pin worker")

	// Apply setup
	s.Bridge.BlinkActivityLED(time.Millisecond * 100)
	failed := s.applySetup(ctx, s.PinTable.Setup)
	s.mutex.Lock()
	s.setupDone = true
	s.mutex.Unlock()
	retryDone := make(chan struct{})
	if len(failed) == 0 {
		close(retryDone)
		s.Bridge.SetActivityLED(true)
		log.Info().Int("setup", len(s.PinTable.Setup)).Msg("Pin setup applied")
	} else {
		s.Bridge.BlinkActivityLED(time.Second)
		log.Warn().Int("failed", len(failed)).Msg("Pin setup applied with errors")
		go func() {
			defer close(retryDone)
			s.retrySetup(ctx, failed)
		}()
	}

	// Wait until canceled
	<-ctx.Done()
	<-retryDone
	log.Info().Msg("Stopping pin worker")

	// Use a fresh context, ctx is already canceled
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return s.close(closeCtx)
}

// applySetup configures the given pins and returns the setups that failed.
// Failures are logged & recorded, they do not stop the remaining setup.
func (s *service) applySetup(ctx context.Context, setup []model.PinSetup) []model.PinSetup {
	var failed []model.PinSetup
	var errs []error
	for _, ps := range setup {
		if err := s.applyPinSetup(ctx, ps); err != nil {
			s.Logger.Error().Err(err).Str("pin", ps.Pin).Msg("Failed to setup pin")
			setupErrorsTotal.WithLabelValues(ps.Pin).Inc()
			failed = append(failed, ps)
			errs = append(errs, errors.Wrapf(err, "pin '%s'", ps.Pin))
		}
	}
	s.mutex.Lock()
	s.setupErrors = errs
	s.mutex.Unlock()
	return failed
}

// retrySetup re-applies the failed setups until all succeeded
// or the context is canceled.
func (s *service) retrySetup(ctx context.Context, failed []model.PinSetup) {
	err := util.RetryUntilSuccess(ctx, s.Logger, "pin setup", func() error {
		setupRetriesTotal.Inc()
		failed = s.applySetup(ctx, failed)
		if len(failed) > 0 {
			return errors.Errorf("%d pins not setup", len(failed))
		}
		return nil
	})
	if err == nil {
		s.Bridge.SetActivityLED(true)
		s.Logger.Info().Msg("Pin setup applied after retry")
	}
}

// applyPinSetup configures a single pin.
func (s *service) applyPinSetup(ctx context.Context, ps model.PinSetup) error {
	b := s.Dependencies.Board
	var opts []board.PinOption
	if f := ps.Function; f != nil {
		opts = append(opts, board.WithFunction(*f))
	}
	if ps.Pullup != "" {
		opts = append(opts, board.WithPullup(mux.Pullup(ps.Pullup)))
	}
	if ps.Slew != "" {
		opts = append(opts, board.WithSlew(mux.Slew(ps.Slew)))
	}
	if err := b.ConfigurePin(ctx, ps.Pin, mux.Direction(ps.Direction), opts...); err != nil {
		return maskAny(err)
	}
	if v := ps.Value; v != nil {
		if err := b.WriteDigital(ctx, ps.Pin, board.Level(*v)); err != nil {
			return maskAny(err)
		}
	}
	if ps.Interrupt != "" {
		log := s.Logger.With().Str("pin", ps.Pin).Logger()
		handler := func(evt board.InterruptEvent) interface{} {
			log.Debug().Int("value", evt.Value).Msg("Edge detected")
			s.Bridge.FlashActivityLED()
			return nil
		}
		notify := func(n board.Notification) {
			if n.Died {
				log.Error().Err(n.Err).Msg("Interrupt monitor died")
			}
		}
		if err := b.AttachEdgeInterrupt(ctx, ps.Pin, monitor.Edge(ps.Interrupt), handler, notify); err != nil {
			return maskAny(err)
		}
	}
	return nil
}

// close releases all pins, monitor tasks & the activity LED.
func (s *service) close(ctx context.Context) error {
	var ae aerr.AggregateError
	ae.Add(s.Dependencies.Board.Close(ctx))
	s.Tracker.KillAll()
	ae.Add(s.Bridge.Close())
	if err := ae.AsError(); err != nil {
		s.Logger.Warn().Err(err).Msg("Failed to close cleanly")
		return maskAny(err)
	}
	return nil
}

// Status returns the current status of the worker.
func (s *service) Status() Status {
	s.mutex.Lock()
	setupDone := s.setupDone
	setupErrors := lo.Map(s.setupErrors, func(err error, _ int) string {
		return err.Error()
	})
	s.mutex.Unlock()
	return Status{
		Version:      s.ProgramVersion,
		Board:        s.PinTable.Board,
		StartedAt:    s.startedAt,
		Uptime:       humanize.Time(s.startedAt),
		SetupDone:    setupDone,
		SetupErrors:  setupErrors,
		MonitorTasks: s.Tracker.Count(),
		Allocations:  s.Dependencies.Board.Allocations(),
	}
}
