package registry

import "github.com/MrSnakeDoc/rpcconsole/internal/domain"

// References holds the outbound bindings wired at startup.
type References struct {
	t *table[*domain.Reference]
}

// NewReferences creates an empty reference registry
func NewReferences() *References {
	return &References{t: newTable[*domain.Reference]("reference")}
}

// Register adds a reference. Names are unique.
func (r *References) Register(ref *domain.Reference) error { return r.t.register(ref) }

// Get returns the reference or an error wrapping domain.ErrNotFound.
func (r *References) Get(name string) (*domain.Reference, error) { return r.t.get(name) }

// Exists reports whether name is registered
func (r *References) Exists(name string) bool { return r.t.exists(name) }

// List returns all references sorted by name
func (r *References) List() []*domain.Reference { return r.t.list() }

// Count returns the number of references
func (r *References) Count() int { return r.t.count() }
