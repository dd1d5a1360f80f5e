package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/unified-ledger/interfaces"
)

// MultiStorageBackend implements interfaces.StorageBackend using multiple backends with fallback.
// Reads try backends in order; writes and deletes must reach every writable backend.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

// NewMultiStorageBackend creates a new multi-storage backend with fallback
func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns data from the first available backend that has it.
// Returns ErrContentNotFound only when every reachable backend reports the entry
// absent. If any member fails with another error and none has the entry, the
// result is ErrBackendUnavailable, since the failing member may hold it.
func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	start := time.Now()
	var errs []error
	notFound := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()))
			continue
		}

		data, err := backend.Fetch(ctx, id, ns)
		if err == nil {
			m.log.Debug("Fetched content",
				slog.String("backend_name", backend.Name()),
				slog.String("content_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if errors.Is(err, interfaces.ErrContentNotFound) {
			notFound++
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("content_id", id.String()),
			"err", err)
	}

	if notFound > 0 && len(errs) == 0 {
		return nil, interfaces.ErrContentNotFound
	}

	m.log.Error("All backends failed to fetch content",
		slog.String("content_id", id.String()),
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no backend available", interfaces.ErrBackendUnavailable)
	}
	return nil, fmt.Errorf("%w: all backends failed to fetch %s: %w", interfaces.ErrBackendUnavailable, id, errors.Join(errs...))
}

// Put writes data to every writable backend. It fails with ErrBackendUnavailable
// unless all of them accepted the write, so a member that was down cannot later
// serve an older value for a write that was reported as done.
func (m *MultiStorageBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	return m.fanOut(ctx, "put", id, func(backend interfaces.StorageBackend) error {
		return backend.Put(ctx, id, ns, data)
	})
}

// Delete removes id from every writable backend, with the same all-or-error
// result as Put.
func (m *MultiStorageBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	return m.fanOut(ctx, "delete", id, func(backend interfaces.StorageBackend) error {
		return backend.Delete(ctx, id, ns)
	})
}

// readOnlyBackend is implemented by backends that never accept writes.
type readOnlyBackend interface {
	ReadOnly() bool
}

func isReadOnly(backend interfaces.StorageBackend) bool {
	ro, ok := backend.(readOnlyBackend)
	return ok && ro.ReadOnly()
}

func (m *MultiStorageBackend) fanOut(ctx context.Context, op string, id interfaces.ContentID, fn func(interfaces.StorageBackend) error) error {
	start := time.Now()
	succeeded := 0
	var errs []error

	for _, backend := range m.backends {
		if isReadOnly(backend) {
			continue
		}

		// an unreachable writable member fails the operation
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		if err := fn(backend); err != nil {
			if errors.Is(err, interfaces.ErrReadOnly) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Backend operation failed",
				slog.String("op", op),
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}
		succeeded++
	}

	if len(errs) > 0 {
		m.log.Error("Backend operation incomplete",
			slog.String("op", op),
			slog.String("content_id", id.String()),
			slog.Int("succeeded", succeeded),
			slog.Int("failed", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("%w: %s %s failed on %d of %d backends: %w",
			interfaces.ErrBackendUnavailable, op, id, len(errs), len(errs)+succeeded, errors.Join(errs...))
	}

	if succeeded == 0 {
		return fmt.Errorf("%w: no writable backend available", interfaces.ErrBackendUnavailable)
	}

	return nil
}

// Available checks if any backend is available
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the URIs of all member backends.
func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}

// Backends returns the member backends in fallback order.
func (m *MultiStorageBackend) Backends() []interfaces.StorageBackend {
	return m.backends
}
