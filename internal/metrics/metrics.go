// Package metrics exposes Prometheus instrumentation for CMS requests and
// page synchronisation runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "areweheadlessyet"

// Sync outcomes recorded per page.
const (
	ResultUnchanged = "unchanged"
	ResultChanged   = "changed"
	ResultFailed    = "failed"
)

// Metrics bundles the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	// CMSRequestsTotal counts CMS requests by HTTP status code, or "error" for transport failures.
	CMSRequestsTotal *prometheus.CounterVec
	// CMSRequestDuration measures CMS request latency.
	CMSRequestDuration prometheus.Histogram
	// SyncPagesTotal counts pages processed by the syncer, by result.
	SyncPagesTotal *prometheus.CounterVec
	// SyncRunsTotal counts completed sync runs.
	SyncRunsTotal prometheus.Counter
	// LastSyncTimestamp is the unix time of the last completed sync run.
	LastSyncTimestamp prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CMSRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cms_requests_total",
			Help:      "Total CMS API requests by status",
		}, []string{"status"}),
		CMSRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "cms_request_duration_seconds",
			Help:      "CMS API request latency distribution",
			Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}),
		SyncPagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_pages_total",
			Help:      "Pages processed by the syncer by result",
		}, []string{"result"}),
		SyncRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sync_runs_total",
			Help:      "Completed sync runs",
		}),
		LastSyncTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last completed sync run",
		}),
	}
}

// ObserveRequest records one CMS request. It satisfies cms.RequestObserver.
func (m *Metrics) ObserveRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CMSRequestsTotal.WithLabelValues(outcome).Inc()
	m.CMSRequestDuration.Observe(elapsed.Seconds())
}

// RecordPage records the sync result for a single page.
func (m *Metrics) RecordPage(result string) {
	if m == nil {
		return
	}
	m.SyncPagesTotal.WithLabelValues(result).Inc()
}

// RecordRun marks a completed sync run.
func (m *Metrics) RecordRun(at time.Time) {
	if m == nil {
		return
	}
	m.SyncRunsTotal.Inc()
	m.LastSyncTimestamp.Set(float64(at.Unix()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
