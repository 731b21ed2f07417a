// Package degrade keeps the set of remote services that outbound calls must
// fail fast for. Reads come from the RPC hot path and never take a lock;
// writes build a new snapshot and swap it in.
package degrade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
	"github.com/MrSnakeDoc/rpcconsole/internal/observability"
)

var (
	// ErrFetch wraps any failure of the external source during Pull.
	ErrFetch = errors.New("degrade: fetch failed")
	// ErrNoSource is returned by Pull when no source is configured.
	ErrNoSource = errors.New("degrade: no source configured")
)

// Source supplies the authoritative degrade list.
type Source interface {
	Fetch(ctx context.Context) ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]string, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]string, error) { return f(ctx) }

// snapshot is never mutated after it is published.
type snapshot struct {
	order []string
	set   map[string]struct{}
}

var emptySnapshot = &snapshot{set: map[string]struct{}{}}

func newSnapshot(names []string) *snapshot {
	s := &snapshot{
		order: make([]string, 0, len(names)),
		set:   make(map[string]struct{}, len(names)),
	}
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := s.set[name]; dup {
			continue
		}
		s.set[name] = struct{}{}
		s.order = append(s.order, name)
	}
	return s
}

// Registry is safe for concurrent use.
type Registry struct {
	current atomic.Pointer[snapshot]
	writeMu sync.Mutex // serializes Add, Remove and the swap in Pull
	source  Source

	// pullSeq numbers pulls in the order their fetch started. applied is
	// the highest number installed so far, guarded by writeMu.
	pullSeq atomic.Uint64
	applied uint64

	logger logger.Logger
}

// NewRegistry creates an empty registry. source may be nil, in which case
// Pull reports ErrNoSource.
func NewRegistry(source Source, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Registry{source: source, logger: log}
	r.current.Store(emptySnapshot)
	return r
}

// IsDegraded reports whether calls to name must fail fast.
func (r *Registry) IsDegraded(name string) bool {
	_, ok := r.current.Load().set[name]
	return ok
}

// List returns the degraded identifiers in insertion order.
func (r *Registry) List() []string {
	snap := r.current.Load()
	out := make([]string, len(snap.order))
	copy(out, snap.order)
	return out
}

// Count returns the number of degraded identifiers.
func (r *Registry) Count() int {
	return len(r.current.Load().order)
}

// HasSource reports whether Pull can reach an external source.
func (r *Registry) HasSource() bool {
	return r.source != nil
}

// Add marks name as degraded and returns the resulting total.
// Adding a present or blank name changes nothing.
func (r *Registry) Add(name string) int {
	name = strings.TrimSpace(name)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old := r.current.Load()
	if _, ok := old.set[name]; ok || name == "" {
		return len(old.order)
	}

	next := make([]string, len(old.order), len(old.order)+1)
	copy(next, old.order)
	next = append(next, name)
	return r.publishLocked(newSnapshot(next))
}

// Remove clears the degrade mark on name and returns the resulting total.
func (r *Registry) Remove(name string) int {
	name = strings.TrimSpace(name)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old := r.current.Load()
	if _, ok := old.set[name]; !ok {
		return len(old.order)
	}

	next := make([]string, 0, len(old.order)-1)
	for _, n := range old.order {
		if n != name {
			next = append(next, n)
		}
	}
	return r.publishLocked(newSnapshot(next))
}

// Replace installs names as the complete degrade set.
func (r *Registry) Replace(names []string) int {
	snap := newSnapshot(names)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.publishLocked(snap)
}

// Pull fetches the list from the source and replaces the current set with
// it. On error the current set is left untouched. When pulls overlap, the
// one whose fetch started last wins; an older result that finishes later is
// discarded. Manual entries added while a fetch is in flight are replaced
// along with everything else.
func (r *Registry) Pull(ctx context.Context) (int, error) {
	if r.source == nil {
		return r.Count(), ErrNoSource
	}

	seq := r.pullSeq.Add(1)

	// The fetch may block on the network; no lock is held here.
	names, err := r.source.Fetch(ctx)
	if err != nil {
		observability.RecordDegradePull(false)
		r.logger.Warn("degrade pull failed, keeping current list",
			logger.Int("count", r.Count()),
			logger.Error(err))
		return r.Count(), fmt.Errorf("%w: %w", ErrFetch, err)
	}

	snap := newSnapshot(names)

	r.writeMu.Lock()
	if seq < r.applied {
		total := len(r.current.Load().order)
		r.writeMu.Unlock()
		r.logger.Debug("degrade pull superseded by a newer pull", logger.Int("count", total))
		return total, nil
	}
	r.applied = seq
	total := r.publishLocked(snap)
	r.writeMu.Unlock()

	observability.RecordDegradePull(true)
	r.logger.Info("degrade list pulled", logger.Int("count", total))
	return total, nil
}

func (r *Registry) publishLocked(snap *snapshot) int {
	r.current.Store(snap)
	observability.SetDegradeEntries(len(snap.order))
	return len(snap.order)
}
