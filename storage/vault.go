package storage

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/ruteri/unified-ledger/interfaces"
)

// VaultBackend implements a storage backend on a HashiCorp Vault KV v2 mount.
// Values are base64 encoded into the "content" field of each secret.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// VaultOptions configures authentication for a VaultBackend.
type VaultOptions struct {
	// Token is used when set; otherwise the client falls back to VAULT_TOKEN.
	Token string
	// TLSConfig enables client certificate authentication when non-nil.
	TLSConfig *tls.Config
	Timeout   time.Duration
}

// NewVaultBackend creates a new Vault storage backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "ledger")
func NewVaultBackend(address, mountPath, dataPath string, opts VaultOptions, log *slog.Logger) (*VaultBackend, error) {
	if log == nil {
		log = slog.Default()
	}
	config := api.DefaultConfig()
	config.Address = address

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if opts.TLSConfig != nil {
		config.HttpClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: opts.TLSConfig},
			Timeout:   timeout,
		}
	} else {
		config.Timeout = timeout
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if opts.Token != "" {
		client.SetToken(opts.Token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Fetch reads the secret for id using the KV v2 data path.
func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	start := time.Now()
	p := b.secretPath("data", id, ns)

	secret, err := b.client.Logical().ReadWithContext(ctx, p)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", p),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Content not found in Vault", slog.String("path", p))
		return nil, interfaces.ErrContentNotFound
	}

	// Deleted versions come back with a nil data map
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		return nil, interfaces.ErrContentNotFound
	}

	content, ok := data["content"].(string)
	if !ok {
		b.log.Error("Content key not found in Vault data", slog.String("path", p))
		return nil, fmt.Errorf("%w: content key not found in Vault data", interfaces.ErrCorrupt)
	}

	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid content encoding in Vault data: %v", interfaces.ErrCorrupt, err)
	}

	b.log.Debug("Fetched content from Vault",
		slog.String("path", p),
		slog.Duration("duration", time.Since(start)))

	return decoded, nil
}

// Put writes a new version of the secret for id.
func (b *VaultBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	start := time.Now()
	p := b.secretPath("data", id, ns)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, p, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", p),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in Vault",
		slog.String("path", p),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Delete removes all versions of the secret for id.
func (b *VaultBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	p := b.secretPath("metadata", id, ns)
	if _, err := b.client.Logical().DeleteWithContext(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Available checks that Vault is reachable, initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

// secretPath builds a KV v2 path; kind is "data" or "metadata".
func (b *VaultBackend) secretPath(kind string, id interfaces.ContentID, ns interfaces.Namespace) string {
	if b.dataPath == "" {
		return fmt.Sprintf("%s/%s/%s/%s", b.mountPath, kind, ns, id)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", b.mountPath, kind, b.dataPath, ns, id)
}
