package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Store reads and writes the shared degrade set in Redis.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore creates a store bound to one degrade set.
func NewStore(client *redis.Client, setName string) *Store {
	return &Store{
		client: client,
		key:    DegradeKey(setName),
	}
}

// Key returns the Redis key of the degrade set.
func (s *Store) Key() string { return s.key }

// Fetch returns the degrade set sorted by name. A missing key is an empty set.
// It satisfies degrade.Source.
func (s *Store) Fetch(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read degrade set %s: %w", s.key, err)
	}
	sort.Strings(members)
	return members, nil
}

// SaveDegrades adds names to the remote set.
func (s *Store) SaveDegrades(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	members := make([]interface{}, len(names))
	for i, n := range names {
		members[i] = n
	}
	if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
		return fmt.Errorf("failed to add to degrade set: %w", err)
	}
	return nil
}

// DeleteDegrades removes names from the remote set.
func (s *Store) DeleteDegrades(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	members := make([]interface{}, len(names))
	for i, n := range names {
		members[i] = n
	}
	if err := s.client.SRem(ctx, s.key, members...).Err(); err != nil {
		return fmt.Errorf("failed to remove from degrade set: %w", err)
	}
	return nil
}
