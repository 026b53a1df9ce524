package archive

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when an object doesn't exist.
var ErrNotFound = errors.New("archive: object not found")

// Store is the interface for snapshot storage backends.
type Store interface {
	// Put writes the object under key, replacing any existing one.
	Put(ctx context.Context, key, contentType string, r io.Reader) error

	// Get opens the object under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns the objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Object describes a stored object.
type Object struct {
	Key      string
	Size     int64
	Modified time.Time
}
