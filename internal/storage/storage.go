// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"time"
)

// ErrObjectNotFound is returned when the requested key does not exist in the store.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object without its bytes.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	UserMetadata map[string]string
}

// ObjectStore is the interface to the external object store. Clients upload
// bytes directly via presigned URLs; this service only reads bytes back and
// manages per-object user metadata.
type ObjectStore interface {
	// PresignedPut returns a presigned PUT URL for key, valid for expiry.
	PresignedPut(ctx context.Context, key string, expiry time.Duration) (*url.URL, error)
	// Stat returns object info including user metadata. ErrObjectNotFound if absent.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	// SetUserMetadata replaces the object's user metadata in place, leaving the
	// bytes untouched. ErrObjectNotFound if the object does not exist.
	SetUserMetadata(ctx context.Context, key string, meta map[string]string) error
	// Get opens the object for reading. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
}
