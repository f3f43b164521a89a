package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrInvalidKey is returned for storage keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ObjectStore defines the contract for saving and retrieving resume files.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// SignedURL returns a time-limited download URL for storageKey.
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}
