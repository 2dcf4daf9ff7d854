// Copyright 2023 Ewout Prangsma
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

package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binkynet/PinWorker/pkg/service"
	"github.com/binkynet/PinWorker/pkg/service/board"
)

// Config for the HTTP server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	Port int
}

// Server runs the HTTP server for the service.
type Server struct {
	Config
	log     zerolog.Logger
	service Service
}

// Service exposed by the server.
type Service interface {
	// Board returns the board driven by the service.
	Board() board.Board
	// Status returns the current status of the worker.
	Status() service.Status
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, svc Service) (*Server, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	return &Server{
		Config:  cfg,
		log:     log.With().Str("component", "server").Logger(),
		service: svc,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	// Prepare HTTP listener
	log := s.log
	httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on address %s", httpAddr)
	}

	// Prepare HTTP server
	httpSrv := http.Server{
		Handler: s.newRouter(),
	}

	// Serve apis
	log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
	serveErrors := make(chan error, 1)
	go func() {
		defer close(serveErrors)
		if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			serveErrors <- errors.Wrap(err, "failed to serve HTTP server")
		}
		log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
	}()

	// Wait until context closed
	select {
	case <-ctx.Done():
	case err := <-serveErrors:
		return err
	}

	log.Info().Msg("Closing server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shutdown HTTP server")
	}
	return nil
}

// newRouter creates the HTTP routes of the server.
func (s *Server) newRouter() *echo.Echo {
	httpRouter := echo.New()
	httpRouter.HideBanner = true
	httpRouter.HidePort = true
	httpRouter.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	httpRouter.GET("/health", healthHandler)
	httpRouter.GET("/status", s.statusHandler)
	httpRouter.GET("/pins", s.pinsHandler)
	httpRouter.GET("/pins/:key/mux", s.muxHandler)
	httpRouter.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	return httpRouter
}

func healthHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) statusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Status())
}

func (s *Server) pinsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Board().Pins())
}

// muxHandler returns the decoded mux register of a pin.
// An unreadable register yields a value with unknown fields.
func (s *Server) muxHandler(c echo.Context) error {
	value, err := s.service.Board().QueryMuxState(c.Request().Context(), c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, value)
}
