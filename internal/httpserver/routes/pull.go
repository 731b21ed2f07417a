package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/mw"
)

func init() { Register(registerPull) }

func registerPull(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Post("/degrades/pull", handlers.PullDegrades(d))
}
