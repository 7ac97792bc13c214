package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
	"github.com/Brownie44l1/corehttp/internal/router"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown or Close
var ErrServerClosed = errors.New("server closed")

// acceptBackoff is the pause after a failed Accept
const acceptBackoff = 5 * time.Millisecond

// Server accepts TCP connections and serves exactly one request on each
type Server struct {
	cfg     Config
	router  *router.Router
	logger  zerolog.Logger
	metrics *Metrics

	mu          sync.Mutex
	middlewares []router.Middleware
	listener    net.Listener
	conns       map[net.Conn]struct{}

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New creates a server dispatching to r
func New(cfg Config, r *router.Router, logger zerolog.Logger) *Server {
	if r == nil {
		r = router.New()
	}
	return &Server{
		cfg:     cfg,
		router:  r,
		logger:  logger,
		metrics: NewMetrics(),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Use adds middleware around every request, unmatched ones included.
// The first middleware added runs outermost.
func (s *Server) Use(middlewares ...router.Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, middlewares...)
}

// Router returns the router requests are dispatched to
func (s *Server) Router() *router.Router {
	return s.router
}

// Metrics returns the live counters
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Stats returns a snapshot of the counters
func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Logger returns the server logger
func (s *Server) Logger() zerolog.Logger {
	return s.logger
}

// Addr returns the listening address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe listens on cfg.Addr and serves until the server is closed
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln, one goroutine each. It always returns
// a non-nil error; ErrServerClosed after Shutdown or Close.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			s.logger.Error().Err(err).Msg("accept failed")
			time.Sleep(acceptBackoff)
			continue
		}

		if !s.track(conn) {
			conn.Close()
			return ErrServerClosed
		}

		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.ServeConn(conn)
		}()
	}
}

// track registers an accepted connection; it fails once the server closes
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// Shutdown stops accepting and waits for in-flight connections. When ctx
// ends first the remaining connections are aborted and ctx's error returned.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.stopListening()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		s.closeConns()
		return ctx.Err()
	}
}

// Close stops accepting and aborts every open connection
func (s *Server) Close() error {
	err := s.stopListening()
	s.closeConns()
	return err
}

func (s *Server) stopListening() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed.Store(true)
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// closeConns expires the deadlines of open connections so their blocked
// reads and writes fail. ServeConn stays the only place that closes them.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.SetDeadline(time.Now())
	}
}

// handler builds the chain for one request: server middleware around the
// router, with unmatched and unanswered requests turned into a 404.
func (s *Server) handler() router.Handler {
	s.mu.Lock()
	middlewares := s.middlewares
	s.mu.Unlock()

	return router.Chain(router.HandlerFunc(s.route), middlewares...)
}

func (s *Server) route(req *request.Request, res *response.Response) {
	if !s.router.Dispatch(req, res) || !res.IsSent() {
		sendError(res, response.StatusNotFound)
	}
}
