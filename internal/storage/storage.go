package storage

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound is returned when a blob ID resolves to nothing.
var ErrBlobNotFound = errors.New("blob not found in storage")

// ObjectStorage defines the interface for blob storage operations. The
// service streams bytes through the server on both paths, so the interface
// works in readers rather than presigned URLs.
type ObjectStorage interface {
	// Upload streams the content of r into the store and returns the opaque
	// blob ID the content is addressable by. filename and contentType are
	// stored alongside as backend metadata.
	Upload(ctx context.Context, filename string, contentType string, r io.Reader) (string, error)

	// Download opens a stream over the blob's content. The caller owns the
	// returned ReadCloser.
	Download(ctx context.Context, blobID string) (io.ReadCloser, error)

	// Delete removes a blob from the store.
	Delete(ctx context.Context, blobID string) error
}
