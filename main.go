//    Copyright 2017 Ewout Prangsma
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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/PinWorker/pkg/environment"
	"github.com/binkynet/PinWorker/pkg/logging"
	"github.com/binkynet/PinWorker/pkg/pintable"
	"github.com/binkynet/PinWorker/pkg/server"
	"github.com/binkynet/PinWorker/pkg/service"
	"github.com/binkynet/PinWorker/pkg/service/board"
	"github.com/binkynet/PinWorker/pkg/service/bridge"
	"github.com/binkynet/PinWorker/pkg/service/monitor"
	"github.com/binkynet/PinWorker/pkg/service/sysfs"
)

const (
	projectName       = "BinkyNet Pin Worker"
	defaultServerPort = 7129
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
)

func main() {
	var levelFlag string
	var serverHost string
	var serverPort int
	var boardType string
	var pinTablePath string
	var sysfsRoot string
	var ioTimeout time.Duration
	var activityLedGPIO int
	var logFile string

	pflag.StringVarP(&levelFlag, "level", "l", "debug", "Set log level")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the HTTP server will listen on")
	pflag.IntVar(&serverPort, "port", defaultServerPort, "Port the HTTP server will listen on")
	pflag.StringVarP(&boardType, "board", "b", "", "Type of board (beaglebone|virtual), detected when empty")
	pflag.StringVar(&pinTablePath, "pin-table", "", "Path of the pin table, defaults to "+pintable.DefaultPath("<board>"))
	pflag.StringVar(&sysfsRoot, "sysfs-root", "/", "Root directory of the kernel resources")
	pflag.DurationVar(&ioTimeout, "io-timeout", 0, "Timeout of a single kernel resource read/write (0 waits forever)")
	pflag.IntVar(&activityLedGPIO, "activity-led", -1, "GPIO number of the activity LED (-1 for none)")
	pflag.StringVar(&logFile, "log-file", "", "Path of a file that logs are appended to")
	pflag.Parse()

	logOutput := logging.NewMultiWriter(zerolog.ConsoleWriter{Out: os.Stderr})
	if logFile != "" {
		f, err := logging.OpenLogFile(logFile)
		if err != nil {
			Exitf("Failed to open log file: %v\n", err)
		}
		defer f.Close()
		logOutput.Add(f)
	}
	logger := zerolog.New(logOutput).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(levelFlag); err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	} else {
		logger = logger.Level(level)
	}

	// Load pin table
	if boardType == "" {
		boardType = environment.AutoDetectBoardType(logger)
	}
	if pinTablePath == "" {
		pinTablePath = pintable.DefaultPath(boardType)
	}
	table, err := pintable.Load(afero.NewOsFs(), pinTablePath)
	if err != nil {
		Exitf("Failed to load pin table: %v\n", err)
	}
	logger.Info().Str("board", boardType).Str("path", pinTablePath).Int("pins", len(table.Pins)).Msg("Loaded pin table")

	// Prepare board
	fs := sysfs.NewOS(sysfs.Config{
		Root:    sysfsRoot,
		Timeout: ioTimeout,
	})
	tracker := monitor.DefaultTracker()
	opener := monitor.NewEpollOpener(fs)
	if boardType == environment.BoardVirtual {
		opener = monitor.NewPollOpener(fs, monitor.DefaultPollInterval)
	}
	b, err := board.New(board.Config{
		Pins:   table.Pins,
		Layout: board.DefaultLayout(),
	}, board.Dependencies{
		Logger:  logger,
		FS:      fs,
		Tracker: tracker,
		Opener:  opener,
	})
	if err != nil {
		Exitf("Failed to initialize Board: %v\n", err)
	}

	var br bridge.API
	if activityLedGPIO >= 0 {
		br, err = bridge.NewGPIOBridge(activityLedGPIO)
		if err != nil {
			Exitf("Failed to initialize GPIO Bridge: %v\n", err)
		}
	} else {
		br, err = bridge.NewVirtualBridge()
		if err != nil {
			Exitf("Failed to initialize Virtual Bridge: %v\n", err)
		}
	}

	svc, err := service.NewService(service.Config{
		ProgramVersion: projectVersion,
		PinTable:       table,
	}, service.Dependencies{
		Logger:  logger,
		Board:   b,
		Bridge:  br,
		Tracker: tracker,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}

	httpServer, err := server.New(server.Config{
		Host: serverHost,
		Port: serverPort,
	}, logger, svc)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(ctx) })
	g.Go(func() error { return httpServer.Run(ctx) })
	if err := g.Wait(); err != nil {
		Exitf("Service run failed: %#v", err)
	}
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
