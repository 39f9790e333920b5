// Package storage persists debug artifacts (prepared label images) for
// offline inspection. Writes happen only when a caller sets the debug flag
// and are never on the request's critical path.
package storage

import (
	"context"
	"io"
)

// ArtifactStore is the interface for debug artifact persistence.
type ArtifactStore interface {
	// Upload stores an artifact under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves an artifact by key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns a location string for a stored artifact.
	GetURL(key string) string

	// Delete removes an artifact.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an artifact is present.
	Exists(ctx context.Context, key string) (bool, error)
}
