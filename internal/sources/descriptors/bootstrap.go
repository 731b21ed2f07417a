package descriptors

import (
	"fmt"

	"github.com/MrSnakeDoc/rpcconsole/internal/domain"
)

// ReferenceRegistrar receives references at startup.
type ReferenceRegistrar interface {
	Register(ref *domain.Reference) error
}

// ServiceRegistrar receives services at startup.
type ServiceRegistrar interface {
	Register(svc *domain.Service) error
}

// Result counts what a bootstrap registered.
type Result struct {
	References int
	Services   int
}

// Bootstrap loads the descriptor file and registers every entry.
// It stops at the first invalid or duplicate entry.
func Bootstrap(path string, refs ReferenceRegistrar, svcs ServiceRegistrar) (Result, error) {
	var res Result

	file, err := NewLoader(path).Load()
	if err != nil {
		return res, err
	}

	references, err := MapReferences(file.References)
	if err != nil {
		return res, err
	}
	services, err := MapServices(file.Services)
	if err != nil {
		return res, err
	}

	for _, ref := range references {
		if err := refs.Register(ref); err != nil {
			return res, fmt.Errorf("failed to register reference: %w", err)
		}
		res.References++
	}
	for _, svc := range services {
		if err := svcs.Register(svc); err != nil {
			return res, fmt.Errorf("failed to register service: %w", err)
		}
		res.Services++
	}

	return res, nil
}
