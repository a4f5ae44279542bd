// Package storage keeps rendered quote proposals in a blob store.
//
// Two providers are available: LocalStorage writes below a directory on disk
// and is meant for development; R2Storage talks to Cloudflare R2 through the
// S3 API.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage is a key/value blob store.
type Storage interface {
	// Put stores data at key. ErrKeyExists is returned when the key is taken
	// and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// ErrNotFound is returned when nothing is stored at key.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string // Detected from the key when empty
	MaxSize     int64  // 0 means unlimited
	Overwrite   bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration
// =============================================================================

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// Config selects and configures a storage provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Region is required by the SDK but ignored by R2. Default: "auto"
	Region string
}

// New builds the provider named by cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// =============================================================================
// Key Generation
// =============================================================================

// QuoteDocumentKey returns the key of a quote's PDF proposal.
// Format: quotes/{submittedDate}/{quoteID}.pdf
//
// Example: "quotes/2024-06-20/Q-1718900000000-1.pdf"
func QuoteDocumentKey(quoteID, submittedDate string) string {
	return fmt.Sprintf("quotes/%s/%s.pdf", submittedDate, quoteID)
}

// validateKey rejects empty keys and keys that climb out of the store.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
