package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
)

// State is the lifecycle position of a session.
type State int32

const (
	StateConnecting State = iota
	StateReady
	StateProcessing
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session is one console connection. Only its own goroutine touches it,
// apart from State which may be read from anywhere.
type Session struct {
	conn         net.Conn
	prompt       string
	dispatcher   *Dispatcher
	maxLine      int
	idleTimeout  time.Duration
	writeTimeout time.Duration
	log          logger.Logger
	state        atomic.Int32
}

// Prompt formats the session prompt for an address and listening port.
func Prompt(ip string, port int) string {
	return fmt.Sprintf("%s:%d>", ip, port)
}

func newSession(conn net.Conn, prompt string, dispatcher *Dispatcher, opts Options, log logger.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		conn:         conn,
		prompt:       prompt,
		dispatcher:   dispatcher,
		maxLine:      opts.MaxLine,
		idleTimeout:  opts.IdleTimeout,
		writeTimeout: opts.WriteTimeout,
		log: log.With(
			logger.String("session", id),
			logger.String("remote", conn.RemoteAddr().String())),
	}
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// Serve runs the read-dispatch-write loop until exit, EOF, an I/O error or
// ctx cancellation. Commands are handled strictly one at a time.
func (s *Session) Serve(ctx context.Context) error {
	defer func() {
		s.setState(StateClosed)
		_ = s.conn.Close()
	}()

	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	s.setState(StateConnecting)
	if err := s.write(s.prompt); err != nil {
		return fmt.Errorf("write banner: %w", err)
	}
	s.setState(StateReady)

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, min(4096, s.maxLine)), s.maxLine)

	for {
		if s.idleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}
		if !scanner.Scan() {
			s.setState(StateClosing)
			err := scanner.Err()
			if err == nil || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				s.log.Info("console session idle, closing", logger.Duration("idle_timeout", s.idleTimeout))
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		s.setState(StateProcessing)
		line := scanner.Text()
		res := s.dispatcher.Handle(ctx, line)
		if res.Close {
			s.setState(StateClosing)
			s.log.Debug("console session exit requested")
			return nil
		}

		if err := s.write(res.Body + s.prompt); err != nil {
			s.setState(StateClosing)
			return fmt.Errorf("write: %w", err)
		}
		s.setState(StateReady)
	}
}

// write sends one frame; partial writes are errors.
func (s *Session) write(frame string) error {
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	_, err := io.WriteString(s.conn, frame)
	return err
}
