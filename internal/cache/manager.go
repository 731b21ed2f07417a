package cache

// Cache is the part of a framework cache the console controls.
// Implementations must be safe for concurrent use.
type Cache interface {
	Len() int
	Purge()
}

// Manager exposes size and clear over one shared cache.
type Manager struct {
	cache Cache
}

func NewManager(c Cache) *Manager {
	return &Manager{cache: c}
}

// Size returns the current number of entries.
func (m *Manager) Size() int {
	if m == nil || m.cache == nil {
		return 0
	}
	return m.cache.Len()
}

// Clear empties the cache and returns the size observed right after.
// Entries inserted concurrently may already be back by then.
func (m *Manager) Clear() int {
	if m == nil || m.cache == nil {
		return 0
	}
	m.cache.Purge()
	return m.cache.Len()
}
