package redis

import "strings"

const (
	// KeyPrefix namespaces every key this node writes or reads.
	KeyPrefix = "rpcconsole:"
	// DefaultDegradeSet is the set holding degraded service identifiers.
	DefaultDegradeSet = "degrades"
)

// DegradeKey returns the Redis key of a degrade set. An empty name selects
// the default set; a name that already carries the prefix is kept as is.
func DegradeKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDegradeSet
	}
	if strings.HasPrefix(name, KeyPrefix) {
		return name
	}
	return KeyPrefix + name
}
