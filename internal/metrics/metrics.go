// Package metrics exposes Prometheus metrics for the supervisor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	processStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procman",
		Subsystem: "process",
		Name:      "starts_total",
		Help:      "Number of process launches",
	}, []string{"name"})

	processExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procman",
		Subsystem: "process",
		Name:      "exits_total",
		Help:      "Number of process exits by outcome",
	}, []string{"name", "outcome"})

	processRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "procman",
		Subsystem: "process",
		Name:      "running",
		Help:      "Number of currently running processes",
	})

	consoleLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procman",
		Subsystem: "process",
		Name:      "console_lines_total",
		Help:      "Console lines captured per process and stream",
	}, []string{"name", "stream"})
)

// Exit outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeDestroyed = "destroyed"
)

// ProcessStarted records a launch and bumps the running gauge.
func ProcessStarted(name string) {
	processStarts.WithLabelValues(name).Inc()
	processRunning.Inc()
}

// ProcessExited records an exit with its outcome and drops the running gauge.
func ProcessExited(name, outcome string) {
	processExits.WithLabelValues(name, outcome).Inc()
	processRunning.Dec()
}

// ConsoleLine counts one captured output line.
func ConsoleLine(name, stream string) {
	consoleLines.WithLabelValues(name, stream).Inc()
}

// Handler returns the Prometheus scrape handler for all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
