package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by registries when a name is not registered.
var ErrNotFound = errors.New("not found")

// Reference describes a consumer-side binding: the contract a node calls
// and where the calls are routed.
//
// A Reference is immutable once registered. It is created when the node
// wires a consumer binding at startup and lives until process exit.
type Reference struct {
	// Name is the unique registry key.
	Name string

	// Interface is the remote contract identifier.
	// Example: com.acme.user.UserService
	Interface string

	// Version and Group select one provider cluster among several
	// publishing the same Interface.
	Version string
	Group   string

	// Endpoints are direct provider addresses. Empty means discovery.
	Endpoints []string

	Timeout time.Duration
	Retries int
}

// String renders the reference for operator display.
func (r *Reference) String() string {
	if r == nil {
		return "Reference{}"
	}
	return fmt.Sprintf("Reference{name=%s, interface=%s, version=%s, group=%s, endpoints=[%s], timeout=%s, retries=%d}",
		r.Name, r.Interface, r.Version, r.Group, strings.Join(r.Endpoints, ","), r.Timeout, r.Retries)
}

// Key satisfies the registry's named-entry contract.
func (r *Reference) Key() string { return r.Name }
