// Package server wraps net/http serving with signal-driven graceful
// shutdown, so binaries only decide the handler and the address.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/graphlapse/graphlapse/pkg/logging"
)

// GracefulServer runs an http.Server until it fails or a termination signal
// arrives, then drains in-flight requests before returning.
type GracefulServer struct {
	srv             *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
	certFile        string
	keyFile         string
	done            chan struct{}
	once            sync.Once
}

// Option adjusts server behavior at construction.
type Option func(*GracefulServer)

// WithShutdownTimeout bounds how long Shutdown waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(gs *GracefulServer) { gs.shutdownTimeout = d }
}

// WithTLS serves HTTPS using the given certificate pair.
func WithTLS(certFile, keyFile string) Option {
	return func(gs *GracefulServer) {
		gs.certFile = certFile
		gs.keyFile = keyFile
	}
}

// NewGracefulServer creates a server on addr with sane timeout defaults.
// A nil logger disables logging.
func NewGracefulServer(addr string, handler http.Handler, logger logging.Logger, opts ...Option) *GracefulServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	gs := &GracefulServer{
		srv: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger:          logger,
		shutdownTimeout: 30 * time.Second,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

// Start serves until SIGINT/SIGTERM or a listener error. A signal triggers a
// graceful drain; ErrServerClosed is swallowed as the normal exit.
func (gs *GracefulServer) Start() error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if gs.certFile != "" {
			err = gs.srv.ListenAndServeTLS(gs.certFile, gs.keyFile)
		} else {
			err = gs.srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	gs.logger.Info("http server listening",
		logging.String("addr", gs.srv.Addr),
		logging.String("tls", boolWord(gs.certFile != "")))

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		gs.logger.Info("shutdown signal received", logging.String("signal", sig.String()))
		return gs.Shutdown()
	case <-gs.done:
		// Shutdown was called from outside.
		return nil
	}
}

// Shutdown drains in-flight requests within the configured timeout. Safe to
// call concurrently with Start; later calls return nil.
func (gs *GracefulServer) Shutdown() error {
	var err error
	gs.once.Do(func() {
		defer close(gs.done)

		ctx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
		defer cancel()

		if err = gs.srv.Shutdown(ctx); err != nil {
			gs.logger.Error("shutdown incomplete", logging.Error(err))
			return
		}
		gs.logger.Info("server drained")
	})
	return err
}

func boolWord(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
