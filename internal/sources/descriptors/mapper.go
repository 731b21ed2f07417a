package descriptors

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/domain"
)

// MapReferences converts reference props into domain references.
func MapReferences(props []ReferenceProps) ([]*domain.Reference, error) {
	refs := make([]*domain.Reference, 0, len(props))
	for i, p := range props {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("references[%d]: missing name", i)
		}
		if strings.TrimSpace(p.Interface) == "" {
			return nil, fmt.Errorf("reference %q: missing interface", name)
		}

		var timeout time.Duration
		if p.Timeout != "" {
			d, err := time.ParseDuration(p.Timeout)
			if err != nil {
				return nil, fmt.Errorf("reference %q: invalid timeout %q: %w", name, p.Timeout, err)
			}
			timeout = d
		}

		refs = append(refs, &domain.Reference{
			Name:      name,
			Interface: strings.TrimSpace(p.Interface),
			Version:   p.Version,
			Group:     p.Group,
			Endpoints: p.Endpoints,
			Timeout:   timeout,
			Retries:   p.Retries,
		})
	}
	return refs, nil
}

// MapServices converts service props into domain services.
func MapServices(props []ServiceProps) ([]*domain.Service, error) {
	services := make([]*domain.Service, 0, len(props))
	for i, p := range props {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("services[%d]: missing name", i)
		}

		kind, err := domain.ParseServiceKind(p.Kind)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}

		services = append(services, &domain.Service{
			Name:           name,
			Kind:           kind,
			Interface:      strings.TrimSpace(p.Interface),
			Implementation: p.Implementation,
			Version:        p.Version,
			Group:          p.Group,
			Weight:         p.Weight,
		})
	}
	return services, nil
}
