// Package metrics exposes Prometheus instrumentation for the unseal
// orchestrator and a small HTTP server to scrape it from.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ElectionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "election",
		Name:      "outcomes_total",
		Help:      "Election attempts by outcome (won, lost, error)",
	}, []string{"outcome"})

	SharesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "bootstrap",
		Name:      "shares_written_total",
		Help:      "Secret shares and credentials written to the object store",
	})

	SharesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "bootstrap",
		Name:      "shares_skipped_total",
		Help:      "Share writes skipped because the object already existed",
	})

	ShareWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "bootstrap",
		Name:      "share_write_failures_total",
		Help:      "Individual share writes that failed",
	})

	SharePollRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "unseal",
		Name:      "share_poll_retries_total",
		Help:      "Polls that found a secret share not yet present",
	})

	UnsealSubmissions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "unseal",
		Name:      "submissions_total",
		Help:      "Unseal shares submitted to the local server",
	})

	PhaseTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vault_autounseal",
		Subsystem: "orchestrator",
		Name:      "phase_transitions_total",
		Help:      "Orchestrator state machine transitions by phase",
	}, []string{"phase"})
)

func init() {
	prometheus.MustRegister(
		ElectionOutcomes,
		SharesWritten,
		SharesSkipped,
		ShareWriteFailures,
		SharePollRetries,
		UnsealSubmissions,
		PhaseTransitions)
}

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given listen address. The namespace
// argument tags the process-level collectors.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	namespace = strings.ReplaceAll(namespace, "-", "_")

	// The default registry already carries the Go and process collectors, so
	// the custom registry holds only the namespaced process collector. A
	// second GoCollector here would fail the merged gather with duplicate
	// go_* families.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
