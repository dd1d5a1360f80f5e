package interfaces

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Namespace partitions a storage backend so proofs and generic values never collide.
type Namespace int

const (
	// ProofNamespace holds serialized proofs.
	ProofNamespace Namespace = iota
	// ValueNamespace holds generic key/value entries.
	ValueNamespace
)

// String returns namespace name.
func (ns Namespace) String() string {
	switch ns {
	case ProofNamespace:
		return "proofs"
	case ValueNamespace:
		return "values"
	default:
		return "unknown"
	}
}

// Valid reports whether ns is one of the known namespaces.
func (ns Namespace) Valid() bool {
	return ns == ProofNamespace || ns == ValueNamespace
}

// Storage is a key/value capability parameterized over key and value type.
// Each key maps to at most one value.
type Storage[K comparable, V any] interface {
	// Set inserts or overwrites the value for key.
	Set(ctx context.Context, key K, value V) error

	// Get returns the stored value and true, or the zero value and false when absent.
	Get(ctx context.Context, key K) (V, bool, error)

	// Exists reports whether key holds a value. Implementations without a cheaper
	// check should delegate to ExistsViaGet.
	Exists(ctx context.Context, key K) (bool, error)

	// Remove deletes the entry for key. Removing an absent key is not an error.
	Remove(ctx context.Context, key K) error
}

// Getter is the read half of Storage.
type Getter[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
}

// ExistsViaGet is the default Exists: a key exists when Get finds a value.
func ExistsViaGet[K comparable, V any](ctx context.Context, g Getter[K, V], key K) (bool, error) {
	_, ok, err := g.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// StorageBackend is a byte-level store keyed by ContentID within a namespace.
type StorageBackend interface {
	// Fetch retrieves data by id. Returns ErrContentNotFound when absent.
	Fetch(ctx context.Context, id ContentID, ns Namespace) ([]byte, error)

	// Put stores data under id, overwriting any previous value.
	Put(ctx context.Context, id ContentID, ns Namespace, data []byte) error

	// Delete removes data stored under id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id ContentID, ns Namespace) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends.
type StorageBackendFactory interface {
	// StorageBackendFor creates backend from URI.
	StorageBackendFor(location StorageBackendLocation) (StorageBackend, error)

	// CreateMultiBackend creates aggregated storage backend.
	CreateMultiBackend(locations []StorageBackendLocation) (StorageBackend, error)
}

// SupportedSchemes lists the storage URI schemes understood by the factory.
var SupportedSchemes = []string{"memory", "file", "s3", "ipfs", "vault", "github", "redis", "mysql", "sqlite"}

// StorageBackendLocation represents URI for storage backend.
type StorageBackendLocation struct {
	Raw    string     // Original URI
	Scheme string     // Protocol
	Host   string     // Hostname
	Path   string     // Resource path
	Query  url.Values // Query parameters
	Auth   string     // Authentication info
}

// NewStorageBackendLocation creates a new storage location from a URI string with validation.
func NewStorageBackendLocation(uri string) (StorageBackendLocation, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return StorageBackendLocation{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	supported := false
	for _, s := range SupportedSchemes {
		if s == scheme {
			supported = true
			break
		}
	}
	if !supported {
		return StorageBackendLocation{}, fmt.Errorf("%w: unsupported storage scheme %q", ErrInvalidLocationURI, parsed.Scheme)
	}

	var auth string
	if parsed.User != nil {
		auth = parsed.User.String()
	}

	return StorageBackendLocation{
		Raw:    uri,
		Scheme: scheme,
		Host:   parsed.Host,
		Path:   parsed.Path,
		Query:  parsed.Query(),
		Auth:   auth,
	}, nil
}

// String returns the original URI string.
func (loc StorageBackendLocation) String() string {
	return loc.Raw
}

// GetParam returns a query parameter value.
func (loc StorageBackendLocation) GetParam(name string) string {
	return loc.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (loc StorageBackendLocation) GetParamBool(name string) bool {
	value := loc.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}
