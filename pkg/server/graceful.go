// Package server runs the HTTP listener with graceful shutdown and signal
// handling.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/stratnet/pkg/logging"
)

// ReloadFunc is called on SIGHUP.
type ReloadFunc func(ctx context.Context) error

// Options configures a GracefulServer. Zero durations take defaults.
type Options struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	TLSConfig       *tls.Config // Serve HTTPS when set
	Logger          logging.Logger
}

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          logging.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	ready        chan struct{}
	addr         net.Addr

	reloadMu sync.RWMutex
	reloadFn ReloadFunc
}

// NewGracefulServer creates a new graceful HTTP server
func NewGracefulServer(addr string, handler http.Handler, opts Options) *GracefulServer {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			MaxHeaderBytes:    1 << 20,
			TLSConfig:         opts.TLSConfig,
		},
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          opts.Logger.With(logging.Component("server")),
		shutdownCh:      make(chan struct{}),
		ready:           make(chan struct{}),
	}
}

// Run listens and serves until ctx is cancelled, then drains connections
// for at most the shutdown timeout.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	gs.addr = ln.Addr()
	scheme := "http"
	if gs.server.TLSConfig != nil {
		ln = tls.NewListener(ln, gs.server.TLSConfig)
		scheme = "https"
	}
	close(gs.ready)

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("HTTP server listening", logging.String("addr", gs.addr.String()), logging.String("scheme", scheme))
		errCh <- gs.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if err := gs.Shutdown(); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address once the listener is up. It blocks until
// then or until ctx ends.
func (gs *GracefulServer) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-gs.ready:
		return gs.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown initiates a graceful shutdown
func (gs *GracefulServer) Shutdown() error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", gs.shutdownTimeout))
		if err = gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("shutdown incomplete", logging.Error(err))
			return
		}
		gs.logger.Info("server shutdown complete")
	})
	return err
}

// HandleSignals calls stop on SIGINT or SIGTERM and reloads on SIGHUP. It
// returns when ctx ends.
func (gs *GracefulServer) HandleSignals(ctx context.Context, stop context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				gs.logger.Info("received SIGHUP, reloading")
				_ = gs.Reload(ctx)
			default:
				gs.logger.Info("received signal, shutting down", logging.String("signal", sig.String()))
				stop()
				return
			}
		}
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// SetReloadFunc sets the function to call when a reload is triggered.
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.reloadMu.Lock()
	defer gs.reloadMu.Unlock()
	gs.reloadFn = fn
}

// Reload runs the reload function, if one is set.
func (gs *GracefulServer) Reload(ctx context.Context) error {
	gs.reloadMu.RLock()
	fn := gs.reloadFn
	gs.reloadMu.RUnlock()

	if fn == nil {
		gs.logger.Info("reload requested, but no reload function configured")
		return nil
	}

	timer := logging.StartTimer(gs.logger, "reload")
	if err := fn(ctx); err != nil {
		timer.EndError(err)
		return err
	}
	timer.End()
	return nil
}
