/*
Package httpserver runs the proof store API.

The server owns a chi router with health and drain endpoints, mounts the API
handlers passed to New (or RegisterHandler) behind the request logger, and runs a
separate Prometheus listener when a metrics address is configured.

# Health

  - GET /livez   - always 200 while the process serves requests
  - GET /readyz  - 200 when ready, 503 while drained
  - GET /drain   - mark not ready so load balancers stop routing traffic
  - GET /undrain - mark ready again

With EnablePprof the standard profiles are served under /debug.

# Lifecycle

RunInBackground starts the API (and metrics) listeners; Shutdown stops them,
waiting at most GracefulShutdownDuration for in-flight requests.
*/
package httpserver
