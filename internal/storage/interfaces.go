// Package storage provides backends for product image blobs.
// The catalog only persists public URLs; the bytes live here.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrImageNotFound indicates the requested image does not exist.
var ErrImageNotFound = errors.New("image not found")

// ImageStore defines the interface for image storage backends.
// Implementations include the local filesystem and S3-compatible object
// storage.
type ImageStore interface {
	// Put stores image content under the given key and returns the
	// public URL to record on the product.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (url string, err error)

	// Delete removes a stored image. Deleting a missing key returns
	// ErrImageNotFound.
	Delete(ctx context.Context, key string) error
}
