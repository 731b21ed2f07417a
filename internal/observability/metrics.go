package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	consoleCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rpcconsole",
			Subsystem: "console",
			Name:      "commands_total",
			Help:      "Console commands handled, by command and outcome.",
		},
		[]string{"command", "outcome"},
	)
	consoleSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rpcconsole",
			Subsystem: "console",
			Name:      "sessions_active",
			Help:      "Open console sessions.",
		},
	)
	consoleRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rpcconsole",
			Subsystem: "console",
			Name:      "connections_rejected_total",
			Help:      "Console connections refused before a session started.",
		},
		[]string{"reason"},
	)
	degradeEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rpcconsole",
			Subsystem: "degrade",
			Name:      "entries",
			Help:      "Services currently degraded.",
		},
	)
	degradePulls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rpcconsole",
			Subsystem: "degrade",
			Name:      "pulls_total",
			Help:      "Degrade list pulls, by result.",
		},
		[]string{"result"},
	)
	degradeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rpcconsole",
			Subsystem: "degrade",
			Name:      "rejected_calls_total",
			Help:      "Outbound calls failed fast because the target is degraded.",
		},
		[]string{"service"},
	)
)

// RegisterMetrics registers all collectors with the default registry once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			consoleCommands,
			consoleSessions,
			consoleRejected,
			degradeEntries,
			degradePulls,
			degradeRejections,
		)
	})
}

func RecordCommand(command, outcome string) {
	RegisterMetrics()
	consoleCommands.WithLabelValues(command, outcome).Inc()
}

func SessionOpened() {
	RegisterMetrics()
	consoleSessions.Inc()
}

func SessionClosed() {
	RegisterMetrics()
	consoleSessions.Dec()
}

func RecordRejectedConnection(reason string) {
	RegisterMetrics()
	consoleRejected.WithLabelValues(reason).Inc()
}

func SetDegradeEntries(n int) {
	RegisterMetrics()
	degradeEntries.Set(float64(n))
}

func RecordDegradePull(success bool) {
	RegisterMetrics()
	result := "ok"
	if !success {
		result = "error"
	}
	degradePulls.WithLabelValues(result).Inc()
}

func RecordDegradedCall(service string) {
	RegisterMetrics()
	degradeRejections.WithLabelValues(service).Inc()
}
