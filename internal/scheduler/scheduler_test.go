package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
)

type countingPuller struct {
	calls atomic.Int32
	pulls chan struct{}
	err   error
}

func newCountingPuller(err error) *countingPuller {
	return &countingPuller{pulls: make(chan struct{}, 16), err: err}
}

func (p *countingPuller) Pull(ctx context.Context) (int, error) {
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("pull without deadline")
	}
	p.calls.Add(1)
	select {
	case p.pulls <- struct{}{}:
	default:
	}
	return int(p.calls.Load()), p.err
}

func waitPull(t *testing.T, p *countingPuller) {
	t.Helper()
	select {
	case <-p.pulls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a pull")
	}
}

func TestDegradePuller_InitialAndManual(t *testing.T) {
	log := logger.New("error", false)
	p := newCountingPuller(nil)
	trigger := make(chan struct{}, 1)

	dp := NewDegradePuller(p, log, 0, time.Second, trigger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dp.Start(ctx)
	waitPull(t, p)

	trigger <- struct{}{}
	waitPull(t, p)

	dp.Stop()
	dp.Stop()

	if got := p.calls.Load(); got != 2 {
		t.Errorf("pulls = %d, want 2", got)
	}
}

func TestDegradePuller_Interval(t *testing.T) {
	log := logger.New("error", false)
	p := newCountingPuller(errors.New("source down"))

	dp := NewDegradePuller(p, log, 10*time.Millisecond, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dp.Start(ctx)
	defer dp.Stop()

	// initial pull plus at least two ticks, failures do not stop the loop
	for i := 0; i < 3; i++ {
		waitPull(t, p)
	}
}

type recordingWriter struct {
	saved   []string
	deleted []string
	err     error
}

func (w *recordingWriter) SaveDegrades(_ context.Context, names ...string) error {
	if w.err != nil {
		return w.err
	}
	w.saved = append(w.saved, names...)
	return nil
}

func (w *recordingWriter) DeleteDegrades(_ context.Context, names ...string) error {
	if w.err != nil {
		return w.err
	}
	w.deleted = append(w.deleted, names...)
	return nil
}

func TestDegradeSeeder_Unseed(t *testing.T) {
	log := logger.New("error", false)

	w := &recordingWriter{}
	ds := NewDegradeSeeder(w, log)

	if err := ds.Unseed(context.Background(), nil); err != nil || len(w.deleted) != 0 {
		t.Fatalf("Unseed(nil) = %v, deleted %v", err, w.deleted)
	}
	if err := ds.Unseed(context.Background(), []string{"payments"}); err != nil {
		t.Fatalf("Unseed() error = %v", err)
	}
	if len(w.deleted) != 1 || w.deleted[0] != "payments" {
		t.Errorf("deleted = %v, want [payments]", w.deleted)
	}

	failing := NewDegradeSeeder(&recordingWriter{err: errors.New("READONLY")}, log)
	if err := failing.Unseed(context.Background(), []string{"a"}); err == nil {
		t.Error("Unseed() should return the writer error")
	}
}

func TestDegradeSeeder_Seed(t *testing.T) {
	log := logger.New("error", false)

	w := &recordingWriter{}
	ds := NewDegradeSeeder(w, log)

	if err := ds.Seed(context.Background(), nil); err != nil {
		t.Fatalf("Seed(nil) error = %v", err)
	}
	if len(w.saved) != 0 {
		t.Errorf("Seed(nil) wrote %v", w.saved)
	}

	if err := ds.Seed(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if len(w.saved) != 2 {
		t.Errorf("saved = %v, want [a b]", w.saved)
	}

	failing := NewDegradeSeeder(&recordingWriter{err: errors.New("READONLY")}, log)
	if err := failing.Seed(context.Background(), []string{"a"}); err == nil {
		t.Error("Seed() should return the writer error")
	}
}
