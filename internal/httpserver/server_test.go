package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
)

type fakeDegrades struct {
	n      int
	source bool
}

func (f fakeDegrades) Count() int      { return f.n }
func (f fakeDegrades) HasSource() bool { return f.source }

type fakeCounter int

func (c fakeCounter) Count() int { return int(c) }

func testDeps() deps.Deps {
	return deps.Deps{
		Logger:     logger.New("error", false),
		StartTime:  time.Now(),
		Version:    "v1.2.3",
		AppName:    "billing-node",
		Degrades:   fakeDegrades{n: 2, source: true},
		References: fakeCounter(3),
		Services:   fakeCounter(1),
		CacheSize:  func() int { return 7 },
		Sessions:   func() int64 { return 1 },
	}
}

func serve(h http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	d := testDeps()
	rec := serve(NewRouter(d.Logger, d), http.MethodGet, "/healthz", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body healthz
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Version != "v1.2.3" || body.Application != "billing-node" {
		t.Errorf("healthz = %+v", body)
	}
}

type healthz struct {
	Status      string `json:"status"`
	Application string `json:"application"`
	Version     string `json:"version"`
}

func TestReadyz(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	d := testDeps()
	d.RedisClient = client
	h := NewRouter(d.Logger, d)

	if rec := serve(h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz with redis up = %d, want 200", rec.Code)
	}

	mr.Close()
	if rec := serve(h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with redis down = %d, want 503", rec.Code)
	}
}

func TestInfra(t *testing.T) {
	d := testDeps()
	rec := serve(NewRouter(d.Logger, d), http.MethodGet, "/infra", "")

	var body struct {
		Status     string `json:"status"`
		Components map[string]struct {
			OK      bool   `json:"ok"`
			Entries *int   `json:"entries"`
			Mode    string `json:"mode"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	deg := body.Components["degrade"]
	if !deg.OK || deg.Entries == nil || *deg.Entries != 2 || deg.Mode != "pull" {
		t.Errorf("degrade component = %+v", deg)
	}
	if c := body.Components["cache"]; c.Entries == nil || *c.Entries != 7 {
		t.Errorf("cache component = %+v", c)
	}
	if r := body.Components["redis"]; !r.OK || r.Mode != "disabled" {
		t.Errorf("redis component = %+v", r)
	}
}

func TestPullDegrades(t *testing.T) {
	d := testDeps()
	d.PullTrigger = make(chan struct{}, 1)
	h := NewRouter(d.Logger, d)

	if rec := serve(h, http.MethodPost, "/degrades/pull", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("first pull = %d, want 202", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/degrades/pull", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second pull = %d, want 429 while one is pending", rec.Code)
	}
	<-d.PullTrigger

	if rec := serve(h, http.MethodGet, "/degrades/pull", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET pull = %d, want 405", rec.Code)
	}
}

func TestPullDegradesWithoutSource(t *testing.T) {
	d := testDeps()
	rec := serve(NewRouter(d.Logger, d), http.MethodPost, "/degrades/pull", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("pull without source = %d, want 409", rec.Code)
	}
}

func TestAllowedCIDRS(t *testing.T) {
	d := testDeps()
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	h := NewRouter(d.Logger, d)

	if rec := serve(h, http.MethodGet, "/infra", "192.168.1.5:4000"); rec.Code != http.StatusForbidden {
		t.Errorf("infra from outside = %d, want 403", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/infra", "10.2.3.4:4000"); rec.Code != http.StatusOK {
		t.Errorf("infra from inside = %d, want 200", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/healthz", "192.168.1.5:4000"); rec.Code != http.StatusOK {
		t.Errorf("healthz is never filtered, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	d := testDeps()
	rec := serve(NewRouter(d.Logger, d), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output should include the default collectors")
	}
}
