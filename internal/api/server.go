// Package api provides the HTTP status endpoint for the Vento bridge.
//
// It exposes health and runtime statistics for monitoring. The server
// follows the same lifecycle pattern as the other components:
//
//	server, err := api.New(deps)
//	server.Start()
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mhbosch/vento-bridge/internal/bridge"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/config"
	"github.com/mhbosch/vento-bridge/internal/infrastructure/logging"
	"github.com/mhbosch/vento-bridge/internal/vento"
)

// HTTP server timeouts.
const (
	readTimeout             = 10 * time.Second
	writeTimeout            = 10 * time.Second
	idleTimeout             = 60 * time.Second
	gracefulShutdownTimeout = 5 * time.Second
)

// BridgeStats reports bridge operation counters. Satisfied by *bridge.Bridge.
type BridgeStats interface {
	Stats() bridge.Stats
}

// DeviceStats reports device transport counters. Satisfied by *vento.Client.
type DeviceStats interface {
	Stats() vento.Stats
}

// BrokerStatus reports MQTT connectivity. Satisfied by *mqtt.Client.
type BrokerStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Broker  BrokerStatus
	Bridge  BridgeStats
	Device  DeviceStats
	Version string
}

// Server is the HTTP status server.
//
// It is created with New() and started with Start(); Close() performs a
// graceful shutdown bounded by gracefulShutdownTimeout.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	broker  BrokerStatus
	bridge  BridgeStats
	device  DeviceStats
	version string
	server  *http.Server
}

// New creates an API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Broker == nil {
		return nil, fmt.Errorf("broker status source is required")
	}
	if deps.Bridge == nil {
		return nil, fmt.Errorf("bridge stats source is required")
	}
	if deps.Device == nil {
		return nil, fmt.Errorf("device stats source is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		broker:  deps.Broker,
		bridge:  deps.Bridge,
		device:  deps.Device,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
//
// Returns:
//   - error: never at present; the listener reports failures via the logger
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		s.logger.Info("status API listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting briefly for in-flight
// requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down status API: %w", err)
	}
	return nil
}
