package domain

import (
	"fmt"
	"strings"
)

// ServiceKind is the closed set of published service variants.
type ServiceKind string

const (
	KindRPC  ServiceKind = "rpc"
	KindHTTP ServiceKind = "http"
)

// ParseServiceKind accepts the textual kind from descriptor files.
// An empty value defaults to KindRPC.
func ParseServiceKind(s string) (ServiceKind, error) {
	switch ServiceKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindRPC:
		return KindRPC, nil
	case KindHTTP:
		return KindHTTP, nil
	default:
		return "", fmt.Errorf("unknown service kind %q", s)
	}
}

// Service describes an inbound service published by this node.
//
// The Name doubles as the lookup key callers use when they resolve the
// implementation, so it is unique across all kinds.
type Service struct {
	Name           string
	Kind           ServiceKind
	Interface      string
	Implementation string
	Version        string
	Group          string
	Weight         int
}

// String renders the service for operator display.
func (s *Service) String() string {
	if s == nil {
		return "Service{}"
	}
	return fmt.Sprintf("Service{name=%s, kind=%s, interface=%s, implementation=%s, version=%s, group=%s, weight=%d}",
		s.Name, s.Kind, s.Interface, s.Implementation, s.Version, s.Group, s.Weight)
}

// Key satisfies the registry's named-entry contract.
func (s *Service) Key() string { return s.Name }
