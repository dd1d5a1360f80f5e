package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/unified-ledger/interfaces"
)

// IPFSBackend implements a storage backend on the mutable file system (MFS) of an IPFS node.
// Entries live under root/<namespace>/<hex id>, so overwrites and deletes are possible
// while the underlying blocks stay content-addressed.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates a new IPFS storage backend connected to the API at host:port.
func NewIPFSBackend(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	if log == nil {
		log = slog.Default()
	}
	apiURL := fmt.Sprintf("%s:%s", host, port)

	if root == "" {
		root = "/ul"
	}
	if !strings.HasPrefix(root, "/") {
		return nil, fmt.Errorf("%w: ipfs root must be absolute, got %q", interfaces.ErrInvalidLocationURI, root)
	}
	root = path.Clean(root)

	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		root:        root,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?root=%s", apiURL, root),
	}, nil
}

// Fetch reads an entry from MFS.
// Returns ErrContentNotFound if the entry doesn't exist or ErrBackendUnavailable
// if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	start := time.Now()
	p := b.getMFSPath(id, ns)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, p)
	if err != nil {
		if isIPFSNotFound(err) {
			b.log.Debug("Content not found in IPFS",
				slog.String("path", p),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to fetch data from IPFS",
			slog.String("path", p),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("path", p),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Put writes data to the MFS path for id, creating parents and truncating any previous value.
func (b *IPFSBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	p := b.getMFSPath(id, ns)
	err := b.shell.FilesWrite(ctx, p, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("failed to write data to IPFS: %w", err)
	}

	b.log.Debug("Stored content in IPFS",
		slog.String("path", p),
		slog.String("contentID", id.String()))

	return nil
}

// Delete removes the MFS entry for id.
func (b *IPFSBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	p := b.getMFSPath(id, ns)
	if err := b.shell.FilesRm(ctx, p, true); err != nil && !isIPFSNotFound(err) {
		return fmt.Errorf("failed to remove data from IPFS: %w", err)
	}
	return nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) getMFSPath(id interfaces.ContentID, ns interfaces.Namespace) string {
	return path.Join(b.root, ns.String(), id.String())
}

func isIPFSNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "no link named")
}
