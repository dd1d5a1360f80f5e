package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig configures the proof store HTTP server built by httpserver.New.
type HTTPServerConfig struct {
	// ListenAddr serves the /api/proofs and /api/kv routes plus the health endpoints.
	ListenAddr string

	// MetricsAddr serves /metrics from the registry that httpserver.Server.MetricsRegistry
	// hands to the proof store metrics. Empty disables the listener.
	MetricsAddr string

	// EnablePprof mounts net/http/pprof under /debug.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is the grace period after /drain turns readyz unhealthy,
	// letting load balancers stop routing proof traffic here.
	DrainDuration time.Duration

	// GracefulShutdownDuration bounds how long in-flight proof and kv requests
	// may run during Shutdown.
	GracefulShutdownDuration time.Duration

	// ReadTimeout bounds reading a request, including proof bodies of up to MaxBodyBytes.
	ReadTimeout time.Duration

	WriteTimeout time.Duration
}
