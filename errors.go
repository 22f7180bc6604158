package streetsearch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/streetsearch/blobstore"
)

var (
	// ErrLocationNotFound is returned when an ID is not in the location catalog.
	ErrLocationNotFound = errors.New("location not found")

	// ErrCatalogNotLoaded is returned by Search before LoadLocations succeeded.
	ErrCatalogNotLoaded = errors.New("location catalog not loaded")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine closed")

	// ErrNoStore is returned by New when no blob store is given.
	ErrNoStore = errors.New("no blob store")
)

// ErrFetch describes a failed fetch of a dataset blob.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrFetch struct {
	Kind  string
	Name  string
	cause error
}

func (e *ErrFetch) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Kind, e.Name, e.cause)
}

func (e *ErrFetch) Unwrap() error { return e.cause }

// NotFound reports whether the blob does not exist.
func (e *ErrFetch) NotFound() bool {
	return blobstore.IsNotFound(e.cause)
}

func newFetchError(kind, name string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrFetch{Kind: kind, Name: name, cause: err}
}
