// Package resolver works out which tag-index shards a query needs and makes
// sure they are loaded before the query is evaluated.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/cache"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel shard fetches.
const DefaultConcurrency = 16

// TagSource lists the known vocabulary used to resolve fuzzy terms.
// It returns nil while the vocabulary is not available.
type TagSource interface {
	Tags() []string
}

// FetchEvent describes one completed shard fetch.
type FetchEvent struct {
	Shard    shard.ID
	Name     string
	Bytes    int
	Duration time.Duration
	// Err is set when the blob could not be fetched.
	Err error
	// DecodeErr is set when the payload was fetched but could not be decoded.
	DecodeErr error
	// Dropped counts malformed entries skipped while decoding.
	Dropped int
}

// Report summarizes one Ensure call.
type Report struct {
	// Required lists every shard the query touches, sorted.
	Required []shard.ID
	// Fetched lists the shards loaded by this call, sorted.
	Fetched []shard.ID
	// Failed maps shards that could not be fetched to their error.
	Failed map[shard.ID]error
}

// Degraded reports whether some required shards are unavailable.
func (r Report) Degraded() bool {
	return len(r.Failed) > 0
}

// Resolver loads tag-index shards into an index store.
type Resolver struct {
	store   blobstore.BlobStore
	layout  shard.Layout
	codec   codec.Codec
	comp    codec.Compression
	cache   *cache.ShardCache[shard.ID, *index.Shard]
	index   *index.Store
	tags    TagSource
	limit   int
	logger  *slog.Logger
	onFetch func(FetchEvent)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLayout sets the blob layout.
func WithLayout(l shard.Layout) Option {
	return func(r *Resolver) { r.layout = l }
}

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) Option {
	return func(r *Resolver) {
		if c != nil {
			r.codec = c
		}
	}
}

// WithCompression sets the payload compression.
func WithCompression(c codec.Compression) Option {
	return func(r *Resolver) { r.comp = c }
}

// WithConcurrency bounds parallel fetches. Values < 1 select the default.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFetchHook registers a callback invoked after every shard fetch.
func WithFetchHook(fn func(FetchEvent)) Option {
	return func(r *Resolver) { r.onFetch = fn }
}

// New creates a resolver that fetches from store and merges into idx.
func New(store blobstore.BlobStore, idx *index.Store, tags TagSource, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		layout: shard.DefaultLayout(),
		codec:  codec.Default,
		cache:  cache.NewShardCache[shard.ID, *index.Shard](),
		index:  idx,
		tags:   tags,
		limit:  DefaultConcurrency,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache exposes the shard cache.
func (r *Resolver) Cache() *cache.ShardCache[shard.ID, *index.Shard] {
	return r.cache
}

// Required returns the sorted, de-duplicated shards needed by segments.
//
// Exact terms need the shard of the term itself. Fuzzy terms need the shard
// of every known tag containing the term; with no vocabulary loaded they need
// nothing.
func (r *Resolver) Required(segments []model.Segment) []shard.ID {
	var vocab []string
	if r.tags != nil {
		vocab = r.tags.Tags()
	}

	seen := make(map[shard.ID]struct{})
	for _, seg := range segments {
		for _, term := range seg.Terms {
			if term.Exact {
				seen[shard.Of(term.Text)] = struct{}{}
				continue
			}
			for _, tag := range vocab {
				if strings.Contains(strings.ToLower(tag), term.Text) {
					seen[shard.Of(tag)] = struct{}{}
				}
			}
		}
	}

	out := make([]shard.ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ensure loads every required shard that is not loaded yet and waits until
// all fetches have settled. Failed fetches are reported, logged and left
// retry-eligible; only context cancellation is returned as an error.
func (r *Resolver) Ensure(ctx context.Context, segments []model.Segment) (Report, error) {
	rep := Report{Required: r.Required(segments)}
	missing := r.cache.Missing(rep.Required)
	if len(missing) == 0 {
		return rep, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.limit)

	for _, id := range missing {
		g.Go(func() error {
			fetched := false
			_, err := r.cache.Load(ctx, id, func(fctx context.Context) (*index.Shard, error) {
				fetched = true
				return r.fetch(fctx, id)
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				if fetched {
					rep.Fetched = append(rep.Fetched, id)
				}
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				if rep.Failed == nil {
					rep.Failed = make(map[shard.ID]error)
				}
				rep.Failed[id] = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rep, err
	}

	sort.Slice(rep.Fetched, func(i, j int) bool { return rep.Fetched[i] < rep.Fetched[j] })
	return rep, nil
}

// fetch reads and decodes one shard and merges it into the index. Decode
// failures yield an empty shard so that the shard is not requested again.
func (r *Resolver) fetch(ctx context.Context, id shard.ID) (*index.Shard, error) {
	name := r.layout.Index(id)
	start := time.Now()

	data, err := blobstore.ReadAll(ctx, r.store, name)
	ev := FetchEvent{Shard: id, Name: name, Bytes: len(data), Duration: time.Since(start)}
	if err != nil {
		ev.Err = err
		r.emit(ev)
		r.logger.WarnContext(ctx, "index shard fetch failed", "shard", id.Hex(), "name", name, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}

	sh := index.NewShard()
	if err := codec.Decode(r.codec, r.comp, data, sh); err != nil {
		ev.DecodeErr = err
		r.emit(ev)
		r.logger.WarnContext(ctx, "index shard decode failed", "shard", id.Hex(), "name", name, "error", err)
		return index.NewShard(), nil
	}
	if sh.Dropped > 0 {
		ev.Dropped = sh.Dropped
		r.logger.WarnContext(ctx, "index shard entries dropped", "shard", id.Hex(), "dropped", sh.Dropped)
	}

	tags := r.index.Merge(sh)
	r.emit(ev)
	r.logger.DebugContext(ctx, "index shard loaded", "shard", id.Hex(), "tags", tags, "bytes", len(data))
	return sh, nil
}

func (r *Resolver) emit(ev FetchEvent) {
	if r.onFetch != nil {
		r.onFetch(ev)
	}
}

// IsCanceled reports whether err stems from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
