package registry

import "github.com/MrSnakeDoc/rpcconsole/internal/domain"

// Services is the explicit service locator: published services are
// registered by the bootstrap code and looked up by name afterwards.
type Services struct {
	t *table[*domain.Service]
}

// NewServices creates an empty service registry
func NewServices() *Services {
	return &Services{t: newTable[*domain.Service]("service")}
}

// Register publishes a service descriptor. Names are unique across kinds.
func (s *Services) Register(svc *domain.Service) error {
	if svc != nil && svc.Kind == "" {
		svc.Kind = domain.KindRPC
	}
	return s.t.register(svc)
}

// Get returns the service or an error wrapping domain.ErrNotFound.
func (s *Services) Get(name string) (*domain.Service, error) { return s.t.get(name) }

// Exists reports whether name is registered
func (s *Services) Exists(name string) bool { return s.t.exists(name) }

// List returns all services sorted by name
func (s *Services) List() []*domain.Service { return s.t.list() }

// Count returns the number of services
func (s *Services) Count() int { return s.t.count() }

// OfKind returns the services of one kind, sorted by name.
func (s *Services) OfKind(kind domain.ServiceKind) []*domain.Service {
	all := s.t.list()
	out := make([]*domain.Service, 0, len(all))
	for _, svc := range all {
		if svc.Kind == kind {
			out = append(out, svc)
		}
	}
	return out
}
