// Meetrics - Zoom Meeting Attendance Analytics
// Copyright 2026 Meetrics Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/meetrics/meetrics

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meetrics/meetrics/internal/logging"
)

// ManagedWorker matches the lifecycle of the sync manager and the
// retention scheduler. Start launches background goroutines and returns,
// Stop blocks until they have drained.
type ManagedWorker interface {
	Start(ctx context.Context) error
	Stop() error
}

// WorkerService adapts a ManagedWorker to the suture.Service interface.
type WorkerService struct {
	worker ManagedWorker
	name   string
}

// NewWorkerService wraps a managed worker as a supervised service.
func NewWorkerService(name string, worker ManagedWorker) *WorkerService {
	return &WorkerService{worker: worker, name: name}
}

// Serve implements suture.Service. Starts the worker and blocks until the
// context is canceled, then stops it.
func (s *WorkerService) Serve(ctx context.Context) error {
	logging.Info().Str("service", s.name).Msg("Starting worker service")

	if err := s.worker.Start(ctx); err != nil {
		logging.Error().Err(err).Str("service", s.name).Msg("Failed to start worker")
		return err
	}

	<-ctx.Done()

	if err := s.worker.Stop(); err != nil {
		logging.Warn().Err(err).Str("service", s.name).Msg("Error stopping worker")
	}

	logging.Info().Str("service", s.name).Msg("Worker service stopped")
	return ctx.Err()
}

// String implements fmt.Stringer for suture log messages.
func (s *WorkerService) String() string {
	return s.name
}

// HTTPServer matches the *http.Server lifecycle methods the service needs,
// so tests can substitute a mock.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server as a supervised service, bridging
// the blocking ListenAndServe pattern to suture's context-aware Serve.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService creates an HTTP server service wrapper. The
// shutdownTimeout bounds how long active connections may take to close
// during graceful shutdown.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service. http.ErrServerClosed is converted to nil
// since it is expected on shutdown.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The original context is already canceled, so shutdown gets
		// its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer for suture log messages.
func (h *HTTPServerService) String() string {
	return h.name
}
