// Package server runs the HTTP listener with signal handling, ordered
// shutdown and live configuration reload.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-synonyms/pkg/logging"
	tlspkg "github.com/dd0wney/cluso-synonyms/pkg/tls"
)

// ConfigReloadFunc is a function that reloads configuration
type ConfigReloadFunc func() error

// ShutdownHook releases one resource. Hooks run after the listener has
// drained, in reverse registration order.
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   ShutdownHook
}

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server *http.Server
	config Config
	logger logging.Logger

	hooks   []namedHook
	hooksMu sync.Mutex

	configReloadFn ConfigReloadFunc
	configMu       sync.RWMutex

	addr    string
	readyCh chan struct{}

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
	doneCh       chan struct{}
}

// NewGracefulServer creates a new graceful HTTP server
func NewGracefulServer(cfg Config, handler http.Handler, logger logging.Logger) *GracefulServer {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			MaxHeaderBytes:    1 << 20,
		},
		config:     cfg,
		logger:     logger.With(logging.Component("server")),
		readyCh:    make(chan struct{}),
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// OnShutdown registers a hook to run during shutdown.
func (gs *GracefulServer) OnShutdown(name string, fn ShutdownHook) {
	gs.hooksMu.Lock()
	defer gs.hooksMu.Unlock()
	gs.hooks = append(gs.hooks, namedHook{name: name, fn: fn})
}

// Run listens on the configured address and serves until ctx is done, a
// SIGINT or SIGTERM arrives, or Shutdown is called. SIGHUP triggers a
// configuration reload. Run returns once shutdown hooks have completed.
// With TLS enabled the listener serves HTTPS only.
func (gs *GracefulServer) Run(ctx context.Context) error {
	tlsConfig, err := tlspkg.ServerTLSConfig(gs.config.TLS)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	if tlsConfig != nil {
		gs.server.TLSConfig = tlsConfig
		ln = tls.NewListener(ln, tlsConfig)
	}
	gs.addr = ln.Addr().String()
	close(gs.readyCh)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- gs.server.Serve(ln)
	}()
	gs.logger.Info("HTTP server listening", logging.String("addr", gs.addr), logging.Bool("tls", tlsConfig != nil))

	for {
		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				<-gs.doneCh
				return gs.shutdownErr
			}
			return err

		case <-ctx.Done():
			return gs.Shutdown(gs.config.ShutdownTimeout)

		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				_ = gs.ReloadConfig()
				continue
			}
			gs.logger.Info("signal received, starting graceful shutdown", logging.String("signal", sig.String()))
			return gs.Shutdown(gs.config.ShutdownTimeout)
		}
	}
}

// Ready is closed once the listener is bound.
func (gs *GracefulServer) Ready() <-chan struct{} {
	return gs.readyCh
}

// Addr returns the bound address. It is valid after Ready is closed.
func (gs *GracefulServer) Addr() string {
	<-gs.readyCh
	return gs.addr
}

// Shutdown drains the listener and then runs the shutdown hooks. Later calls
// wait for the first one and return its result.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)
		defer close(gs.doneCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))

		var errs []error
		if err := gs.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}

		gs.hooksMu.Lock()
		hooks := make([]namedHook, len(gs.hooks))
		copy(hooks, gs.hooks)
		gs.hooksMu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			if err := h.fn(ctx); err != nil {
				gs.logger.Error("shutdown hook failed", logging.String("hook", h.name), logging.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			}
		}

		gs.shutdownErr = errors.Join(errs...)
		if gs.shutdownErr != nil {
			gs.logger.Error("shutdown finished with errors", logging.Error(gs.shutdownErr))
		} else {
			gs.logger.Info("server shutdown complete")
		}
	})
	<-gs.doneCh
	return gs.shutdownErr
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

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function to call when configuration reload is triggered
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig triggers a configuration reload
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}

	if err := reloadFn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}

	gs.logger.Info("configuration reloaded")
	return nil
}
