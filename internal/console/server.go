package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
	"github.com/MrSnakeDoc/rpcconsole/internal/observability"
	"github.com/MrSnakeDoc/rpcconsole/internal/utils"
)

// Options configures the console listener. The console has no
// authentication: AllowedCIDRS and ConnRate only narrow who can connect,
// so the port must not be reachable from untrusted networks.
type Options struct {
	Addr         string        // ex: ":9999"
	LocalIP      string        // shown in the prompt, default: first non-loopback IPv4
	MaxLine      int           // longest accepted line in bytes, default 4096
	IdleTimeout  time.Duration // 0 = sessions never time out
	WriteTimeout time.Duration // 0 = no write deadline
	AllowedCIDRS []string      // empty = any peer
	ConnRate     float64       // new connections per second per IP, 0 = unlimited
	ConnBurst    int
}

// Server accepts console connections and runs one Session per connection.
type Server struct {
	opts       Options
	dispatcher *Dispatcher
	log        logger.Logger
	matcher    *utils.IPMatcher
	limiter    *connLimiter

	mu     sync.Mutex
	ln     net.Listener
	active atomic.Int64
	wg     sync.WaitGroup
}

func NewServer(opts Options, dispatcher *Dispatcher, log logger.Logger) *Server {
	if opts.MaxLine <= 0 {
		opts.MaxLine = 4096
	}
	if opts.LocalIP == "" {
		opts.LocalIP = utils.LocalIPv4()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		opts:       opts,
		dispatcher: dispatcher,
		log:        log,
		matcher:    utils.NewIPMatcher(opts.AllowedCIDRS),
		limiter:    newConnLimiter(opts.ConnRate, opts.ConnBurst),
	}
}

// Listen binds the listener without accepting yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("console listen on %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveSessions returns the number of open sessions.
func (s *Server) ActiveSessions() int64 { return s.active.Load() }

// ListenAndServe binds and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts connections until ctx is cancelled, then closes every open
// session and waits for them to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("console: Serve called before Listen")
	}
	defer s.wg.Wait()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.log.Info("console listening", logger.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("console stopped")
				return nil
			}
			return fmt.Errorf("console accept: %w", err)
		}

		if !s.admit(conn) {
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

// admit applies the CIDR allowlist and the per-IP rate limit.
func (s *Server) admit(conn net.Conn) bool {
	ip := utils.AddrIP(conn.RemoteAddr())

	if !s.matcher.IsEmpty() && !s.matcher.Allow(ip) {
		s.log.Warn("console connection refused", logger.String("remote_ip", ip), logger.String("reason", "not_allowed"))
		observability.RecordRejectedConnection("not_allowed")
		utils.Close(conn)
		return false
	}
	if !s.limiter.Allow(ip, time.Now()) {
		s.log.Warn("console connection refused", logger.String("remote_ip", ip), logger.String("reason", "rate_limited"))
		observability.RecordRejectedConnection("rate_limited")
		utils.Close(conn)
		return false
	}
	return true
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	sess := newSession(conn, Prompt(s.opts.LocalIP, s.port()), s.dispatcher, s.opts, s.log)

	active := s.active.Add(1)
	observability.SessionOpened()
	sess.log.Info("console client connected", logger.Int("active_sessions", int(active)))
	defer func() {
		remaining := s.active.Add(-1)
		observability.SessionClosed()
		sess.log.Info("console client disconnected", logger.Int("active_sessions", int(remaining)))
	}()

	if err := sess.Serve(ctx); err != nil {
		sess.log.Warn("console session closed on error", logger.Error(err))
	}
}

func (s *Server) port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}
