package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/unified-ledger/interfaces"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubBackend implements a read-only storage backend over GitHub's contents API.
// Entries are files at <namespace>/<hex id> in the repository at the configured ref.
type GitHubBackend struct {
	owner       string
	repo        string
	ref         string
	apiBase     string
	client      *http.Client
	log         *slog.Logger
	locationURI string
}

// GitHubContent represents a file object from GitHub's contents API.
type GitHubContent struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
}

// NewGitHubBackend creates a new GitHub storage backend for reading from Git repositories.
// An empty ref reads the default branch.
func NewGitHubBackend(owner, repo, ref string, log *slog.Logger) *GitHubBackend {
	if log == nil {
		log = slog.Default()
	}
	uri := fmt.Sprintf("github://%s/%s", owner, repo)
	if ref != "" {
		uri += "?ref=" + url.QueryEscape(ref)
	}
	return &GitHubBackend{
		owner:       owner,
		repo:        repo,
		ref:         ref,
		apiBase:     defaultGitHubAPI,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         log,
		locationURI: uri,
	}
}

// WithAPIBase points the backend at a different API endpoint (GitHub Enterprise, tests).
func (b *GitHubBackend) WithAPIBase(apiBase string) *GitHubBackend {
	b.apiBase = strings.TrimSuffix(apiBase, "/")
	return b
}

// Fetch retrieves the file stored for id.
func (b *GitHubBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	filePath := fmt.Sprintf("%s/%s", ns, id)

	content, err := b.fetchContent(ctx, filePath)
	if err != nil {
		return nil, err
	}

	if content.Type != "" && content.Type != "file" {
		return nil, fmt.Errorf("%w: %s is a %s, not a file", interfaces.ErrCorrupt, filePath, content.Type)
	}
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("%w: unexpected content encoding: %s", interfaces.ErrCorrupt, content.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode content: %v", interfaces.ErrCorrupt, err)
	}

	b.log.Debug("Fetched content from GitHub",
		slog.String("path", filePath),
		slog.String("sha", content.SHA),
		slog.Int("size", len(data)))

	return data, nil
}

// Put is not supported by this read-only backend.
func (b *GitHubBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	return fmt.Errorf("%w: GitHub backend", interfaces.ErrReadOnly)
}

// Delete is not supported by this read-only backend.
func (b *GitHubBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	return fmt.Errorf("%w: GitHub backend", interfaces.ErrReadOnly)
}

// ReadOnly reports true; multi-backend writes skip this member.
func (b *GitHubBackend) ReadOnly() bool {
	return true
}

// Available checks if the GitHub repository is accessible.
func (b *GitHubBackend) Available(ctx context.Context) bool {
	u := fmt.Sprintf("%s/repos/%s/%s", b.apiBase, b.owner, b.repo)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		b.log.Debug("Failed to create request", "err", err)
		return false
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Debug("GitHub backend unavailable", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.log.Debug("GitHub backend unavailable",
			slog.String("status", resp.Status))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *GitHubBackend) Name() string {
	return fmt.Sprintf("github-%s-%s", b.owner, b.repo)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *GitHubBackend) LocationURI() string {
	return b.locationURI
}

func (b *GitHubBackend) fetchContent(ctx context.Context, filePath string) (*GitHubContent, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", b.apiBase, b.owner, b.repo, filePath)
	if b.ref != "" {
		u += "?ref=" + url.QueryEscape(b.ref)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, interfaces.ErrContentNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: GitHub API error: %s", interfaces.ErrBackendUnavailable, resp.Status)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("GitHub API error: %s, %s", resp.Status, string(body))
	}

	var content GitHubContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	return &content, nil
}
