// Package server exposes the conversational turn over HTTP: a payment-gated
// POST endpoint, a schema metadata GET on the same path, a WebSocket event
// stream, and a health check. Everything here is boundary plumbing; the
// conversational semantics live in pkg/agent and pkg/session.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// ChatPath is the turn endpoint; GET serves schema metadata, POST runs a
// turn. StreamPath serves the WebSocket event stream.
const (
	ChatPath   = "/api/chat"
	StreamPath = "/api/chat/stream"
)

// Server is the HTTP boundary around the turn runner.
type Server struct {
	options     Options
	runner      TurnRunner
	broadcaster *Broadcaster
	chatSchema  *gojsonschema.Schema
	server      *http.Server
	logger      zerolog.Logger
	startTime   time.Time

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates the HTTP server.
func NewServer(options Options, runner TurnRunner, broadcaster *Broadcaster, logger zerolog.Logger) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("turn runner is required")
	}
	if options.Port == 0 {
		options.Port = 3001
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.ShutdownTimeout == 0 {
		options.ShutdownTimeout = 30 * time.Second
	}

	chatSchema, err := compileChatSchema()
	if err != nil {
		return nil, err
	}

	return &Server{
		options:     options,
		runner:      runner,
		broadcaster: broadcaster,
		chatSchema:  chatSchema,
		logger:      logger,
		startTime:   time.Now(),
	}, nil
}

// Handler builds the routed and middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.track(s.handleHealth))
	mux.HandleFunc(ChatPath, s.track(s.handleChat))
	if s.broadcaster != nil {
		mux.HandleFunc(StreamPath, s.track(s.handleStream))
	}
	return s.withRequestID(s.withCORS(mux))
}

// Start runs the server until Stop is called. It blocks.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Bool("payments", !s.options.Payment.Disabled).
		Msg("Starting server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(s.options.ShutdownTimeout):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// track refuses new work during shutdown and counts in-flight requests.
func (s *Server) track(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		shuttingDown := s.isShuttingDown
		s.shutdownMu.RUnlock()
		if shuttingDown {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "server is shutting down"})
			return
		}

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()
		next(w, r)
	}
}
