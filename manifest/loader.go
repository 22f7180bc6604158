package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/codec"
)

// Loader fetches the manifest once. A failed load leaves the loader empty
// and the next call retries.
type Loader struct {
	store  blobstore.BlobStore
	name   string
	codec  codec.Codec
	comp   codec.Compression
	logger *slog.Logger

	mu       sync.Mutex
	current  atomic.Pointer[Manifest]
	attempts atomic.Int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.codec = c
		}
	}
}

// WithCompression sets the payload compression.
func WithCompression(c codec.Compression) LoaderOption {
	return func(l *Loader) { l.comp = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for the named blob.
func NewLoader(store blobstore.BlobStore, name string, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:  store,
		name:   name,
		codec:  codec.Default,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the manifest, fetching it if it has not been loaded yet.
// Concurrent callers share one fetch.
func (l *Loader) Load(ctx context.Context) (*Manifest, error) {
	if m := l.current.Load(); m != nil {
		return m, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if m := l.current.Load(); m != nil {
		return m, nil
	}

	l.attempts.Add(1)
	m, err := l.fetch(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "manifest load failed", "name", l.name, "error", err)
		return nil, err
	}
	if m.Dropped > 0 {
		l.logger.WarnContext(ctx, "manifest entries dropped", "name", l.name, "dropped", m.Dropped)
	}

	l.current.Store(m)
	l.logger.DebugContext(ctx, "manifest loaded", "name", l.name, "tags", m.Len())
	return m, nil
}

func (l *Loader) fetch(ctx context.Context) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, l.store, l.name)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", l.name, err)
	}
	m := &Manifest{}
	if err := codec.Decode(l.codec, l.comp, data, m); err != nil {
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	return m, nil
}

// Manifest returns the loaded manifest, or nil before a successful load.
func (l *Loader) Manifest() *Manifest {
	return l.current.Load()
}

// Loaded reports whether a load has succeeded.
func (l *Loader) Loaded() bool {
	return l.current.Load() != nil
}

// Tags returns the manifest tags, or nil before a successful load.
func (l *Loader) Tags() []string {
	return l.current.Load().Tags()
}

// Attempts returns the number of fetch attempts made.
func (l *Loader) Attempts() int64 {
	return l.attempts.Load()
}
