package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/rpcconsole/internal/domain"
)

var (
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("already registered")
	// ErrEmptyName is returned when registering an entry without a name.
	ErrEmptyName = errors.New("empty name")
)

// entry is anything addressable by a unique name.
type entry interface {
	comparable
	Key() string
}

// table is the read-mostly name index shared by References and Services.
type table[T entry] struct {
	mu    sync.RWMutex
	items map[string]T
	kind  string // used in error messages
}

func newTable[T entry](kind string) *table[T] {
	return &table[T]{
		items: make(map[string]T),
		kind:  kind,
	}
}

func (t *table[T]) register(item T) error {
	var zero T
	if item == zero {
		return fmt.Errorf("%s: %w", t.kind, ErrEmptyName)
	}
	name := strings.TrimSpace(item.Key())
	if name == "" {
		return fmt.Errorf("%s: %w", t.kind, ErrEmptyName)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.items[name]; ok {
		return fmt.Errorf("%s %q: %w", t.kind, name, ErrDuplicate)
	}
	t.items[name] = item
	return nil
}

func (t *table[T]) get(name string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	item, ok := t.items[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s %q: %w", t.kind, name, domain.ErrNotFound)
	}
	return item, nil
}

func (t *table[T]) exists(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.items[name]
	return ok
}

// list returns a name-sorted snapshot taken under one read lock, so its
// length always matches the count at that instant.
func (t *table[T]) list() []T {
	t.mu.RLock()
	out := make([]T, 0, len(t.items))
	for _, item := range t.items {
		out = append(out, item)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (t *table[T]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.items)
}
