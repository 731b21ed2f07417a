package console

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/cache"
	"github.com/MrSnakeDoc/rpcconsole/internal/degrade"
	"github.com/MrSnakeDoc/rpcconsole/internal/registry"
)

func startServer(t *testing.T, opts Options) (*Server, *degrade.Registry) {
	t.Helper()

	degrades := degrade.NewRegistry(nil, nil)
	d := NewDispatcher(Deps{
		AppName:    "test-app",
		LocalIP:    "127.0.0.1",
		References: registry.NewReferences(),
		Services:   registry.NewServices(),
		Degrades:   degrades,
		Cache:      cache.NewManager(nil),
	})

	opts.Addr = "127.0.0.1:0"
	opts.LocalIP = "127.0.0.1"
	srv := NewServer(opts, d, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})
	return srv, degrades
}

func dial(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func promptFor(srv *Server) string {
	return fmt.Sprintf("127.0.0.1:%d>", srv.Addr().(*net.TCPAddr).Port)
}

// readFrame reads until the prompt is seen and returns what came before it.
func readFrame(t *testing.T, r *bufio.Reader, prompt string) string {
	t.Helper()
	var b strings.Builder
	for !strings.HasSuffix(b.String(), prompt) {
		c, err := r.ReadByte()
		if err != nil {
			t.Fatalf("read frame: %v (got %q)", err, b.String())
		}
		b.WriteByte(c)
	}
	return strings.TrimSuffix(b.String(), prompt)
}

func TestServerSessionRoundTrip(t *testing.T) {
	srv, degrades := startServer(t, Options{})
	conn := dial(t, srv)
	r := bufio.NewReader(conn)
	prompt := promptFor(srv)

	if banner := readFrame(t, r, prompt); banner != "" {
		t.Errorf("banner = %q, want only the prompt", banner)
	}

	steps := []struct {
		line string
		want string
	}{
		{"", ""},
		{"client", "Application: test-app\r\nIP: 127.0.0.1\r\n"},
		{"foobar", "Unknown command 'foobar'. See 'help'.\r\n"},
		{"degrade -add svc", "Total 1\r\n"},
		{"degrades\r", "Total 1\r\n0) svc\r\n"},
	}
	for _, s := range steps {
		if _, err := fmt.Fprintf(conn, "%s\n", s.line); err != nil {
			t.Fatalf("write %q: %v", s.line, err)
		}
		if got := readFrame(t, r, prompt); got != s.want {
			t.Errorf("%q -> %q, want %q", s.line, got, s.want)
		}
	}

	if !degrades.IsDegraded("svc") {
		t.Error("degrade -add should reach the registry")
	}
	if srv.ActiveSessions() != 1 {
		t.Errorf("ActiveSessions() = %d, want 1", srv.ActiveSessions())
	}
}

func TestServerExitClosesWithoutOutput(t *testing.T) {
	srv, _ := startServer(t, Options{})
	conn := dial(t, srv)
	r := bufio.NewReader(conn)
	readFrame(t, r, promptFor(srv))

	if _, err := conn.Write([]byte("exit\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 64)
	n, err := r.Read(buf)
	if err == nil || n != 0 {
		t.Errorf("after exit got %q, err %v; want closed connection", buf[:n], err)
	}
}

func TestServerClosesOnOverlongLine(t *testing.T) {
	srv, _ := startServer(t, Options{MaxLine: 64})
	conn := dial(t, srv)
	r := bufio.NewReader(conn)
	readFrame(t, r, promptFor(srv))

	if _, err := conn.Write([]byte(strings.Repeat("x", 200) + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 64)
	if n, err := r.Read(buf); err == nil {
		t.Errorf("over-long line should close the session, got %q", buf[:n])
	}
}

func TestServerRejectsDisallowedPeer(t *testing.T) {
	srv, _ := startServer(t, Options{AllowedCIDRS: []string{"10.0.0.0/8"}})
	conn := dial(t, srv)

	buf := make([]byte, 64)
	if n, err := conn.Read(buf); err == nil {
		t.Errorf("peer outside the allowlist got %q", buf[:n])
	}
}

func TestServerRateLimitsPeer(t *testing.T) {
	srv, _ := startServer(t, Options{ConnRate: 0.001, ConnBurst: 1})

	first := dial(t, srv)
	readFrame(t, bufio.NewReader(first), promptFor(srv))

	second := dial(t, srv)
	buf := make([]byte, 64)
	if n, err := second.Read(buf); err == nil {
		t.Errorf("rate-limited peer got %q", buf[:n])
	}
}

func TestSessionStateString(t *testing.T) {
	if StateProcessing.String() != "processing" {
		t.Errorf("StateProcessing = %q", StateProcessing.String())
	}
	if Prompt("10.0.0.1", 9999) != "10.0.0.1:9999>" {
		t.Errorf("Prompt() = %q", Prompt("10.0.0.1", 9999))
	}
}
