// Package metrics exposes Prometheus metrics for the proof store and its HTTP surface.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves a dedicated Prometheus registry on its own address.
type MetricsServer struct {
	namespace string
	registry  *prometheus.Registry
	srv       *http.Server
}

// New creates a metrics server. Metric names are prefixed with namespace.
// An empty addr still yields a usable registry; only ListenAndServe needs it.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace})); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &MetricsServer{
		namespace: namespace,
		registry:  registry,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Registry returns the registry served by this server.
func (m *MetricsServer) Registry() *prometheus.Registry {
	return m.registry
}

// Namespace returns the metric name prefix.
func (m *MetricsServer) Namespace() string {
	return m.namespace
}

// Handler returns the /metrics handler.
func (m *MetricsServer) Handler() http.Handler {
	return m.srv.Handler
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
