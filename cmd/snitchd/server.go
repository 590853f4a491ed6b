package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/tlsutil"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// SelfSignedHosts enables HTTPS with a generated certificate for these
	// hosts. Ignored when certificate files are configured.
	SelfSignedHosts []string

	// ShutdownTimeout bounds the graceful drain on shutdown.
	ShutdownTimeout time.Duration
}

// Server serves the pipeline webhook, health checks and metrics.
type Server struct {
	config  ServerConfig
	handler *PipelineHandler
	logger  *zap.Logger
	server  *http.Server
	ready   atomic.Bool
	caPEM   []byte
}

// NewServer creates a new server.
func NewServer(config ServerConfig, handler *PipelineHandler, logger *zap.Logger) *Server {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		config:  config,
		handler: handler,
		logger:  logger.Named("server"),
	}
}

// Routes returns the HTTP handler with all endpoints registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/pipeline", s.handler.Handle)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then stops accepting requests
// and waits for in-flight events to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	tlsConfig, err := s.tlsConfig()
	if err != nil {
		return err
	}
	useTLS := tlsConfig != nil
	s.server.TLSConfig = tlsConfig

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server",
			zap.String("addr", ln.Addr().String()),
			zap.Bool("tls", useTLS),
		)
		var err error
		if useTLS {
			// Empty paths when the certificate is already in TLSConfig.
			err = s.server.ServeTLS(ln, s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.ready.Store(true)

	select {
	case <-ctx.Done():
		s.ready.Store(false)
		s.logger.Info("Shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer shutdownCancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		if err := s.handler.Wait(shutdownCtx); err != nil {
			return fmt.Errorf("in-flight events did not finish: %w", err)
		}
		return nil
	case err := <-errCh:
		s.ready.Store(false)
		return err
	}
}

// tlsConfig returns nil when the server should speak plain HTTP.
func (s *Server) tlsConfig() (*tls.Config, error) {
	if s.config.TLSCertFile != "" && s.config.TLSKeyFile != "" {
		return &tls.Config{MinVersion: tls.VersionTLS12}, nil
	}
	if len(s.config.SelfSignedHosts) == 0 {
		return nil, nil
	}

	bundle, err := tlsutil.GenerateSelfSigned(s.config.SelfSignedHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate self-signed certificate: %w", err)
	}
	cert, err := bundle.TLSCertificate()
	if err != nil {
		return nil, fmt.Errorf("failed to load self-signed certificate: %w", err)
	}
	s.caPEM = bundle.CACertPEM
	s.logger.Info("Generated self-signed certificate", zap.Strings("hosts", s.config.SelfSignedHosts))
	return &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}, nil
}

// CABundle returns the PEM CA of a generated certificate, or nil.
func (s *Server) CABundle() []byte {
	return s.caPEM
}

// handleHealth handles the /healthz endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReady handles the /readyz endpoint.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
