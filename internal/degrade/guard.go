package degrade

import (
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/rpcconsole/internal/observability"
)

// ErrDegraded is returned by Guard.Check for a degraded target.
var ErrDegraded = errors.New("service degraded")

// Checker is the read side the transport layer depends on.
type Checker interface {
	IsDegraded(name string) bool
}

// Guard is consulted by the outbound invoker before a call is dispatched.
type Guard struct {
	checker Checker
}

func NewGuard(checker Checker) *Guard {
	return &Guard{checker: checker}
}

// Check returns ErrDegraded when calls to service must fail fast.
func (g *Guard) Check(service string) error {
	if g == nil || g.checker == nil || !g.checker.IsDegraded(service) {
		return nil
	}
	observability.RecordDegradedCall(service)
	return fmt.Errorf("%w: %s", ErrDegraded, service)
}
