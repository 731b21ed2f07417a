package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/handlers"
)

func init() { Register(registerHealthz) }

// healthz stays open so load balancers outside the allowlist can probe it.
func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
