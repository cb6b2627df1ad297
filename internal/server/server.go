package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultMaxConns   = 64
	maxAcceptBackoff  = time.Second
	reportErrTimeout  = time.Second
	minAcceptBackoff  = 5 * time.Millisecond
	drainPollInterval = 10 * time.Millisecond
)

// Executor runs the availability lookup for one request.
//
// Implemented by [repositories.RecordRepository].
type Executor interface {
	FindAvailability(ctx context.Context, req models.Request) (models.ResultSet, error)
}

// Options configures a [Server]. Zero timeouts disable the corresponding deadline.
type Options struct {
	Addr            string
	MaxConns        int
	ReadTimeout     time.Duration
	QueryTimeout    time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int
	Logger          *log.Logger
}

// OptionsFromConfig maps the [shared.ServerConfig] section onto [Options].
func OptionsFromConfig(cfg shared.ServerConfig, logger *log.Logger) Options {
	return Options{
		Addr:            cfg.Addr(),
		MaxConns:        cfg.MaxConns,
		ReadTimeout:     cfg.ReadTimeout,
		QueryTimeout:    cfg.QueryTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		MaxRequestBytes: cfg.MaxRequestBytes,
		Logger:          logger,
	}
}

// Server accepts lookup connections and runs one handler per connection on a bounded worker pool.
type Server struct {
	executor Executor
	opts     Options
	logger   *log.Logger
	pool     *ants.Pool
	stats    *Stats
}

// New creates a Server that answers requests with executor.
func New(executor Executor, opts Options) (*Server, error) {
	if executor == nil {
		return nil, fmt.Errorf("%w: executor is required", shared.ErrInvalidArgument)
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = defaultMaxConns
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	s := &Server{
		executor: executor,
		opts:     opts,
		logger:   shared.WithLogger(opts.Logger, "component", "server"),
		stats:    &Stats{},
	}

	pool, err := ants.NewPool(opts.MaxConns,
		ants.WithLogger(s.logger),
		ants.WithPanicHandler(func(v any) {
			s.stats.failed.Add(1)
			s.logger.Error("handler panicked", "panic", v)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler pool: %w", err)
	}
	s.pool = pool

	return s, nil
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to bind %s: %w", shared.ErrConnection, s.opts.Addr, err)
	}
	s.logger.Info("listening", "addr", ln.Addr().String(), "max_conns", s.opts.MaxConns)
	return ln, nil
}

// ListenAndServe binds the configured address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, dispatching each to a handler.
//
// Accept errors are logged and retried with a capped backoff. Serve returns nil after cancellation and
// an error only if the listener is closed by someone else. Cancellation also closes the handler pool,
// so a dispatch blocked on a saturated pool returns; handlers already running finish on their own
// deadlines. A Server serves at most once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		s.pool.Release()
	})
	defer stop()

	handlerCtx := context.WithoutCancel(ctx)

	s.logger.Info("start service loop")
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("finished service loop")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: listener closed: %w", shared.ErrConnection, err)
			}

			s.stats.acceptErrors.Add(1)
			backoff = nextBackoff(backoff)
			s.logger.Error("accept failed", "error", err, "retry_in", backoff)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}

		backoff = 0
		s.dispatch(handlerCtx, conn)
	}
}

// dispatch submits a handler for conn to the pool, blocking while every worker is busy.
func (s *Server) dispatch(ctx context.Context, conn net.Conn) {
	s.stats.accepted.Add(1)
	h := newConnHandler(conn, s)
	h.logger.Info("connection established")

	if err := s.pool.Submit(func() { h.serve(ctx) }); err != nil {
		s.stats.failed.Add(1)
		if errors.Is(err, ants.ErrPoolClosed) {
			h.logger.Warn("server shutting down, dropping connection")
		} else {
			h.logger.Error("failed to schedule handler", "error", err)
		}
		h.close()
	}
}

// Stats returns a snapshot of the connection counters.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Close releases the handler pool, waiting up to timeout for in-flight handlers.
func (s *Server) Close(timeout time.Duration) error {
	s.pool.Release()
	if timeout <= 0 {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for s.pool.Running() > 0 {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %d handlers still running after %s", shared.ErrTimeout, s.pool.Running(), timeout)
		}
		time.Sleep(drainPollInterval)
	}
	return nil
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	d *= 2
	if d > maxAcceptBackoff {
		d = maxAcceptBackoff
	}
	return d
}
