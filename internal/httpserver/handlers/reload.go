package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/rpcconsole/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rpcconsole/internal/logger"
)

// PullDegrades triggers a manual degrade pull. The pull itself runs in the
// scheduler; the handler only queues it.
func PullDegrades(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.PullTrigger == nil {
			w.WriteHeader(http.StatusConflict)
			if _, err := w.Write([]byte("No degrade source configured.\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
			return
		}

		select {
		case d.PullTrigger <- struct{}{}:
			d.Logger.Info("manual degrade pull triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("Degrade pull triggered\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("degrade pull already pending",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("Degrade pull already pending, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
