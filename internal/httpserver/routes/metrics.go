package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/mw"
	"github.com/MrSnakeDoc/rpcconsole/internal/observability"
)

func init() { Register(registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	observability.RegisterMetrics()
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Handle("/metrics", promhttp.Handler())
}
