// Package server runs the FreshDeal TCP listener. Each connection carries
// exactly one request and one response.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/config"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/metrics"
	"github.com/prn-tf/freshdeal/internal/protocol"
)

// acceptBackoff is the pause after an accept error that is not a timeout.
const acceptBackoff = 100 * time.Millisecond

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("server closed")

// Dispatcher turns a raw request into a response. A returned error is a
// system failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte) (*protocol.Response, error)
}

// Config contains configuration for the server.
type Config struct {
	Addr               string
	MaxClients         int
	AcceptPollInterval time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownGrace      time.Duration
	MaxRequestBytes    int64
}

// ConfigFrom converts the server section of the application config.
func ConfigFrom(cfg config.ServerConfig) Config {
	return Config{
		Addr:               cfg.Addr(),
		MaxClients:         cfg.MaxClients,
		AcceptPollInterval: cfg.AcceptPollInterval,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		ShutdownGrace:      cfg.ShutdownGrace,
		MaxRequestBytes:    int64(cfg.MaxRequestBytes),
	}
}

// Server accepts connections and serves them on a bounded set of goroutines.
type Server struct {
	cfg        Config
	dispatcher Dispatcher
	audit      *audit.Logger
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	slots    *semaphore.Weighted
	shutdown atomic.Bool
	serving  atomic.Bool
	done     chan struct{}

	// connCtx outlives the caller's context so in-flight requests can drain;
	// it is cancelled only when the shutdown grace period runs out.
	connCtx     context.Context
	cancelConns context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// New creates a Server. auditLog and m may be nil.
func New(cfg Config, dispatcher Dispatcher, auditLog *audit.Logger, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 50
	}
	if cfg.AcceptPollInterval <= 0 {
		cfg.AcceptPollInterval = time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 5 * time.Second
	}

	connCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:         cfg,
		dispatcher:  dispatcher,
		audit:       auditLog,
		metrics:     m,
		logger:      logger.With().Str("component", "server").Logger(),
		slots:       semaphore.NewWeighted(int64(cfg.MaxClients)),
		done:        make(chan struct{}),
		connCtx:     connCtx,
		cancelConns: cancel,
		conns:       make(map[net.Conn]struct{}),
	}
}

// ListenAndServe binds the configured address and serves until ctx is
// cancelled or Shutdown is called. A bind failure is audited and returned
// immediately.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		err = fmt.Errorf("failed to bind %s: %w", s.cfg.Addr, err)
		s.logger.Error().Err(err).Msg("server failed to start")
		s.audit.Error(ctx, domain.SystemUser, err)
		return err
	}
	return s.Serve(ctx, ln)
}

// Addr returns the bound address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// Serve runs the accept loop on ln. The loop wakes every AcceptPollInterval
// to check for shutdown. It returns ErrServerClosed once stopped.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.serving.CompareAndSwap(false, true) {
		return errors.New("server already serving")
	}
	defer close(s.done)
	defer ln.Close()

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	port := 0
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Int("max_clients", s.cfg.MaxClients).Msg("server listening")
	s.audit.ServerStart(ctx, port)

	dl, _ := ln.(deadliner)
	for !s.stopping(ctx) {
		if !s.acquireSlot(ctx) {
			continue
		}

		if dl != nil {
			_ = dl.SetDeadline(time.Now().Add(s.cfg.AcceptPollInterval))
		}
		conn, err := ln.Accept()
		if err != nil {
			s.slots.Release(1)
			if s.stopping(ctx) || errors.Is(err, net.ErrClosed) {
				break
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			s.logger.Error().Err(err).Msg("accept failed")
			s.audit.Error(ctx, domain.SystemUser, fmt.Errorf("accept failed: %w", err))
			time.Sleep(acceptBackoff)
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		go s.handleConn(conn)
	}

	return ErrServerClosed
}

func (s *Server) stopping(ctx context.Context) bool {
	return s.shutdown.Load() || ctx.Err() != nil
}

// acquireSlot waits at most one poll interval for a free worker slot.
func (s *Server) acquireSlot(ctx context.Context) bool {
	if s.slots.TryAcquire(1) {
		return true
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.AcceptPollInterval)
	defer cancel()
	return s.slots.Acquire(waitCtx, 1) == nil
}

// Shutdown stops accepting, waits up to ShutdownGrace for in-flight
// connections, force-closes whatever is left and records the shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info().Msg("shutting down")

	if s.serving.Load() {
		select {
		case <-s.done:
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-time.After(s.cfg.ShutdownGrace):
		n := s.forceClose()
		s.logger.Warn().Int("connections", n).Msg("grace period expired, closed remaining connections")
		select {
		case <-drained:
		case <-ctx.Done():
			err = ctx.Err()
		}
	case <-ctx.Done():
		s.forceClose()
		err = ctx.Err()
	}

	s.audit.ServerShutdown(context.Background())
	s.logger.Info().Msg("server stopped")
	return err
}

// forceClose cancels in-flight requests and closes their connections.
func (s *Server) forceClose() int {
	s.cancelConns()

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	return len(s.conns)
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// =============================================================================
// Connection Handling
// =============================================================================

func (s *Server) handleConn(conn net.Conn) {
	ctx := s.connCtx
	addr := conn.RemoteAddr().String()
	logger := s.logger.With().Str("client", addr).Logger()

	s.metrics.ConnectionOpened()
	s.audit.ClientConnect(ctx, addr)

	defer func() {
		_ = conn.Close()
		s.untrack(conn)
		s.audit.ClientDisconnect(ctx, addr)
		s.metrics.ConnectionClosed()
		s.slots.Release(1)
		s.wg.Done()
	}()

	resp := s.serveRequest(ctx, conn, addr, logger)
	if resp == nil {
		return
	}

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := protocol.EncodeResponse(conn, resp); err != nil {
		logger.Warn().Err(err).Msg("failed to write response")
	}
}

// serveRequest reads and dispatches one request. It returns nil only when
// the transport failed and no response can be delivered.
func (s *Server) serveRequest(ctx context.Context, conn net.Conn, addr string, logger zerolog.Logger) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic while serving request")
			s.audit.Error(ctx, addr, fmt.Errorf("panic: %v", r))
			resp = protocol.Error(protocol.MsgInternalError)
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	raw, err := protocol.ReadRequest(conn, s.cfg.MaxRequestBytes)
	switch {
	case errors.Is(err, protocol.ErrEmptyRequest):
		return protocol.Error(protocol.MsgEmptyRequest)
	case errors.Is(err, protocol.ErrRequestTooLarge):
		logger.Warn().Int64("limit", s.cfg.MaxRequestBytes).Msg("request too large")
		return protocol.Error(protocol.MsgTooLarge)
	case errors.Is(err, os.ErrDeadlineExceeded):
		logger.Warn().Dur("timeout", s.cfg.ReadTimeout).Msg("request read timed out")
		return protocol.Error(protocol.MsgTimedOut)
	case err != nil:
		logger.Warn().Err(err).Msg("failed to read request")
		return nil
	}

	resp, err = s.dispatcher.Dispatch(ctx, raw)
	if err != nil {
		logger.Error().Err(err).Msg("request failed")
		s.audit.Error(ctx, addr, err)
		return protocol.Error(protocol.MsgInternalError)
	}
	return resp
}
