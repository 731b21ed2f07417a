package cache

import (
	"errors"
	"fmt"
	"strings"

	arc "github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	PolicyLRU = "lru"
	PolicyARC = "arc"

	// DefaultSize is used when no positive size is configured.
	DefaultSize = 1024
)

var ErrUnknownPolicy = errors.New("unknown cache policy")

// store is what both hashicorp caches have in common.
type store interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte)
	Remove(key string)
	Len() int
	Purge()
}

type lruStore struct{ c *lru.Cache[string, []byte] }

func (s lruStore) Get(k string) ([]byte, bool) { return s.c.Get(k) }
func (s lruStore) Add(k string, v []byte)      { s.c.Add(k, v) }
func (s lruStore) Remove(k string)             { s.c.Remove(k) }
func (s lruStore) Len() int                    { return s.c.Len() }
func (s lruStore) Purge()                      { s.c.Purge() }

// MetadataCache holds serialized method metadata keyed by service and method.
type MetadataCache struct {
	policy string
	store  store
}

// NewMetadataCache builds a bounded cache with the given eviction policy.
func NewMetadataCache(policy string, size int) (*MetadataCache, error) {
	if size <= 0 {
		size = DefaultSize
	}

	policy = strings.ToLower(strings.TrimSpace(policy))
	var s store
	switch policy {
	case "", PolicyLRU:
		c, err := lru.New[string, []byte](size)
		if err != nil {
			return nil, fmt.Errorf("failed to create lru cache: %w", err)
		}
		policy = PolicyLRU
		s = lruStore{c: c}
	case PolicyARC:
		c, err := arc.NewARC[string, []byte](size)
		if err != nil {
			return nil, fmt.Errorf("failed to create arc cache: %w", err)
		}
		s = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, policy)
	}

	return &MetadataCache{policy: policy, store: s}, nil
}

// MethodKey returns the cache key of one method of a service.
func MethodKey(service, method string) string {
	return service + "#" + method
}

func (c *MetadataCache) Get(service, method string) ([]byte, bool) {
	return c.store.Get(MethodKey(service, method))
}

func (c *MetadataCache) Put(service, method string, blob []byte) {
	c.store.Add(MethodKey(service, method), blob)
}

func (c *MetadataCache) Invalidate(service, method string) {
	c.store.Remove(MethodKey(service, method))
}

func (c *MetadataCache) Policy() string { return c.policy }

func (c *MetadataCache) Len() int { return c.store.Len() }

func (c *MetadataCache) Purge() { c.store.Purge() }
