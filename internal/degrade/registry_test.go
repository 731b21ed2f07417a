package degrade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func staticSource(names ...string) Source {
	return SourceFunc(func(context.Context) ([]string, error) { return names, nil })
}

func TestAddRemove(t *testing.T) {
	r := NewRegistry(nil, nil)

	if got := r.Add("userService"); got != 1 {
		t.Errorf("Add() total = %d, want 1", got)
	}
	if !r.IsDegraded("userService") {
		t.Error("IsDegraded(userService) = false after Add")
	}

	if got := r.Remove("userService"); got != 0 {
		t.Errorf("Remove() total = %d, want 0", got)
	}
	if r.IsDegraded("userService") {
		t.Error("IsDegraded(userService) = true after Remove")
	}
}

func TestAddIsIdempotent(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Add("foo")
	r.Add("foo")
	r.Add("  foo ")

	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
	if list := r.List(); len(list) != 1 || list[0] != "foo" {
		t.Errorf("List() = %v, want [foo]", list)
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Add("a")

	if got := r.Remove("b"); got != 1 {
		t.Errorf("Remove(absent) total = %d, want 1", got)
	}
	if got := r.Add(""); got != 1 {
		t.Errorf("Add(blank) total = %d, want 1", got)
	}
}

func TestListKeepsInsertionOrderAndIsACopy(t *testing.T) {
	r := NewRegistry(nil, nil)
	for _, n := range []string{"c", "a", "b"} {
		r.Add(n)
	}

	list := r.List()
	if strings.Join(list, ",") != "c,a,b" {
		t.Errorf("List() = %v, want [c a b]", list)
	}

	list[0] = "mutated"
	if r.List()[0] != "c" {
		t.Error("List() exposed internal storage")
	}
}

func TestPullReplaces(t *testing.T) {
	r := NewRegistry(staticSource("x", "y", "x", " ", "z"), nil)
	r.Add("manual")

	total, err := r.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if total != 3 {
		t.Errorf("Pull() total = %d, want 3", total)
	}
	if r.IsDegraded("manual") {
		t.Error("manual entry survived a replacing pull")
	}
	if strings.Join(r.List(), ",") != "x,y,z" {
		t.Errorf("List() = %v, want [x y z]", r.List())
	}
}

func TestPullEmptySucceeds(t *testing.T) {
	r := NewRegistry(staticSource(), nil)
	r.Add("a")

	total, err := r.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if total != 0 || r.Count() != 0 {
		t.Errorf("Pull() total = %d, Count() = %d, want 0", total, r.Count())
	}
}

func TestPullFailureKeepsState(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewRegistry(SourceFunc(func(context.Context) ([]string, error) { return nil, boom }), nil)
	r.Add("a")
	r.Add("b")

	total, err := r.Pull(context.Background())
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Pull() error = %v, want ErrFetch", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Pull() error = %v, should wrap the source error", err)
	}
	if total != 2 || r.Count() != 2 {
		t.Errorf("after failed pull total = %d, Count() = %d, want 2", total, r.Count())
	}
	if !r.IsDegraded("a") || !r.IsDegraded("b") {
		t.Error("failed pull altered membership")
	}
}

func TestPullWithoutSource(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Add("a")

	total, err := r.Pull(context.Background())
	if !errors.Is(err, ErrNoSource) {
		t.Errorf("Pull() error = %v, want ErrNoSource", err)
	}
	if total != 1 {
		t.Errorf("Pull() total = %d, want 1", total)
	}
	if r.HasSource() {
		t.Error("HasSource() = true, want false")
	}
}

// Readers must only ever see the complete old set or the complete new set.
func TestPullIsAtomicForReaders(t *testing.T) {
	const size = 64
	oldSet := make([]string, size)
	newSet := make([]string, size)
	for i := 0; i < size; i++ {
		oldSet[i] = fmt.Sprintf("old-%02d", i)
		newSet[i] = fmt.Sprintf("new-%02d", i)
	}

	var flip atomic.Bool
	src := SourceFunc(func(context.Context) ([]string, error) {
		if flip.Load() {
			flip.Store(false)
			return oldSet, nil
		}
		flip.Store(true)
		return newSet, nil
	})
	r := NewRegistry(src, nil)
	r.Replace(oldSet)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var mixed atomic.Int64

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				list := r.List()
				if len(list) != size {
					mixed.Add(1)
					continue
				}
				prefix := list[0][:4]
				for _, n := range list {
					if !strings.HasPrefix(n, prefix) {
						mixed.Add(1)
						break
					}
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		if _, err := r.Pull(context.Background()); err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
	}
	cancel()
	wg.Wait()

	if n := mixed.Load(); n != 0 {
		t.Errorf("readers observed %d mixed snapshots", n)
	}
}

func TestConcurrentAddRemoveAndReads(t *testing.T) {
	r := NewRegistry(nil, nil)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(3)
		name := fmt.Sprintf("svc-%d", i%10)
		go func() {
			defer wg.Done()
			r.Add(name)
		}()
		go func() {
			defer wg.Done()
			_ = r.IsDegraded(name)
			_ = r.List()
		}()
		go func() {
			defer wg.Done()
			_ = r.Count()
		}()
	}
	wg.Wait()

	if r.Count() != 10 {
		t.Errorf("Count() = %d, want 10", r.Count())
	}
	if len(r.List()) != r.Count() {
		t.Error("List() length and Count() disagree")
	}
}

func TestOverlappingPullsKeepNewestFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	r := NewRegistry(SourceFunc(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return []string{"old"}, nil
		}
		return []string{"new-a", "new-b"}, nil
	}), nil)

	slow := make(chan int, 1)
	go func() {
		n, err := r.Pull(context.Background())
		if err != nil {
			t.Errorf("slow Pull() error = %v", err)
		}
		slow <- n
	}()
	<-started

	if n, err := r.Pull(context.Background()); err != nil || n != 2 {
		t.Fatalf("fast Pull() = %d, %v", n, err)
	}

	close(release)
	if n := <-slow; n != 2 {
		t.Errorf("superseded Pull() total = %d, want 2", n)
	}
	if r.IsDegraded("old") || !r.IsDegraded("new-a") {
		t.Errorf("List() = %v, the older fetch must not win", r.List())
	}
}
