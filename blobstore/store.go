package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// StatusError is returned by remote stores when the origin answers with a
// non-success status other than "not found".
type StatusError struct {
	Name       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blobstore: %s: unexpected status %s", e.Name, e.Status)
}

// IsNotFound reports whether err signals a missing blob.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// BlobStore is an abstraction for accessing immutable data blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	// ReadRange returns a reader for length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
}

// Reader is an optional interface for stores that can fetch a whole blob in
// one call.
type Reader interface {
	ReadAll(ctx context.Context, name string) ([]byte, error)
}

// Lister is an optional interface for stores that can enumerate blobs.
type Lister interface {
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Putter is an optional interface for writable stores.
type Putter interface {
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
}

// ReadAll returns the full contents of the named blob.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	if r, ok := store.(Reader); ok {
		return r.ReadAll(ctx, name)
	}

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	size := b.Size()
	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == size) {
		return nil, err
	}
	return buf[:n], nil
}

// List enumerates blobs if the store supports it.
func List(ctx context.Context, store BlobStore, prefix string) ([]string, error) {
	l, ok := store.(Lister)
	if !ok {
		return nil, fmt.Errorf("blobstore: %T does not support listing", store)
	}
	return l.List(ctx, prefix)
}
