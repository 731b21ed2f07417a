package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Entries *int   `json:"entries,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every runtime component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"degrade":    degradeStatus(d),
			"redis":      checkRedis(r.Context(), d),
			"references": counted(d.References),
			"services":   counted(d.Services),
		}
		if d.CacheSize != nil {
			n := d.CacheSize()
			components["cache"] = componentStatus{OK: true, Entries: &n}
		}
		if d.Sessions != nil {
			n := int(d.Sessions())
			components["console"] = componentStatus{OK: true, Entries: &n, Mode: "sessions"}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded" // degrade list frozen until redis is back
	}
	return "ok"
}

func degradeStatus(d deps.Deps) componentStatus {
	if d.Degrades == nil {
		return componentStatus{OK: false, Error: "registry not initialized"}
	}
	n := d.Degrades.Count()
	mode := "manual"
	if d.Degrades.HasSource() {
		mode = "pull"
	}
	return componentStatus{OK: true, Entries: &n, Mode: mode}
}

func counted(c deps.Counter) componentStatus {
	if c == nil {
		return componentStatus{OK: false, Error: "not initialized"}
	}
	n := c.Count()
	return componentStatus{OK: true, Entries: &n}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Mode: "unreachable", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "connected"}
}
