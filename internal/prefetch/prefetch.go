// Package prefetch loads location-detail shards ahead of selection.
//
// Two speculative paths feed the detail cache: hovering a location schedules
// a debounced fetch of its shard, and a small enough search result triggers
// an eager fetch of every shard it touches. Selection uses Load, which joins
// any fetch already in flight.
package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/cache"
	"github.com/hupe1980/streetsearch/internal/detail"
	"github.com/hupe1980/streetsearch/internal/resource"
	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/model"
)

const (
	// DefaultHoverDelay debounces hover-triggered fetches.
	DefaultHoverDelay = 20 * time.Millisecond
	// DefaultMaxMatches is the exclusive match-count ceiling for eager prefetch.
	DefaultMaxMatches = 2000
	// DefaultMaxShards is the inclusive shard-count ceiling for eager prefetch.
	DefaultMaxShards = 15
)

// Event describes one completed detail shard fetch.
type Event struct {
	Shard      string
	Name       string
	Bytes      int
	Duration   time.Duration
	Background bool
	Err        error
	DecodeErr  error
}

// Reason explains an eager prefetch decision.
type Reason string

const (
	ReasonStarted         Reason = "started"
	ReasonEmpty           Reason = "empty"
	ReasonTooManyMatches  Reason = "too_many_matches"
	ReasonTooManyShards   Reason = "too_many_shards"
	ReasonAlreadyResident Reason = "resident"
	ReasonMemoryBudget    Reason = "memory_budget"
)

// Decision is the outcome of Matches.
type Decision struct {
	Reason  Reason
	Matches int
	// Shards lists the distinct detail shards the matches span, sorted.
	Shards []string
	// Scheduled lists the shards a background fetch was started for.
	Scheduled []string
}

// Started reports whether any background fetch was scheduled.
func (d Decision) Started() bool {
	return d.Reason == ReasonStarted
}

// Prefetcher owns the detail shard cache.
type Prefetcher struct {
	store      blobstore.BlobStore
	layout     shard.Layout
	codec      codec.Codec
	comp       codec.Compression
	logger     *slog.Logger
	rc         *resource.Controller
	hoverDelay time.Duration
	maxMatches int
	maxShards  int
	onFetch    func(Event)

	cache *cache.ShardCache[string, *detail.Shard]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	lastHover string
	timer     *time.Timer

	hovers    atomic.Int64
	scheduled atomic.Int64
	skipped   atomic.Int64
}

// Option configures a Prefetcher.
type Option func(*Prefetcher)

// WithLayout sets the blob layout.
func WithLayout(l shard.Layout) Option {
	return func(p *Prefetcher) { p.layout = l }
}

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) Option {
	return func(p *Prefetcher) {
		if c != nil {
			p.codec = c
		}
	}
}

// WithCompression sets the payload compression.
func WithCompression(c codec.Compression) Option {
	return func(p *Prefetcher) { p.comp = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prefetcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithController sets the budget for background fetches.
func WithController(rc *resource.Controller) Option {
	return func(p *Prefetcher) { p.rc = rc }
}

// WithHoverDelay sets the hover debounce.
func WithHoverDelay(d time.Duration) Option {
	return func(p *Prefetcher) {
		if d >= 0 {
			p.hoverDelay = d
		}
	}
}

// WithCeilings sets the eager prefetch ceilings. Non-positive values keep
// the defaults.
func WithCeilings(maxMatches, maxShards int) Option {
	return func(p *Prefetcher) {
		if maxMatches > 0 {
			p.maxMatches = maxMatches
		}
		if maxShards > 0 {
			p.maxShards = maxShards
		}
	}
}

// WithFetchHook registers a callback invoked after every detail fetch.
func WithFetchHook(fn func(Event)) Option {
	return func(p *Prefetcher) { p.onFetch = fn }
}

// New creates a prefetcher reading from store.
func New(store blobstore.BlobStore, opts ...Option) *Prefetcher {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Prefetcher{
		store:      store,
		layout:     shard.DefaultLayout(),
		codec:      codec.Default,
		logger:     slog.New(slog.DiscardHandler),
		hoverDelay: DefaultHoverDelay,
		maxMatches: DefaultMaxMatches,
		maxShards:  DefaultMaxShards,
		cache:      cache.NewShardCache[string, *detail.Shard](),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache exposes the detail shard cache.
func (p *Prefetcher) Cache() *cache.ShardCache[string, *detail.Shard] {
	return p.cache
}

// Hover schedules a fetch of the shard holding id after the hover delay.
// Hovering a location in the same shard as the previous hover is a no-op;
// a newer hover replaces a pending one.
func (p *Prefetcher) Hover(id model.LocationID) {
	name := shard.DetailID(id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || name == p.lastHover {
		return
	}
	p.lastHover = name
	p.hovers.Add(1)

	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.hoverDelay, func() {
		if !p.track() {
			return
		}
		defer p.wg.Done()
		p.runBackground(name)
	})
}

// Matches considers an eager prefetch for a search result.
func (p *Prefetcher) Matches(ids *roaring.Bitmap) Decision {
	var n int
	if ids != nil {
		n = int(ids.GetCardinality())
	}
	d := Decision{Matches: n}

	switch {
	case n == 0:
		d.Reason = ReasonEmpty
		return d
	case n >= p.maxMatches:
		d.Reason = ReasonTooManyMatches
		p.skipped.Add(1)
		return d
	case p.rc.MemoryExhausted():
		d.Reason = ReasonMemoryBudget
		p.skipped.Add(1)
		return d
	}

	seen := make(map[string]struct{})
	it := ids.Iterator()
	for it.HasNext() {
		seen[shard.DetailID(model.LocationID(it.Next()))] = struct{}{}
	}
	for name := range seen {
		d.Shards = append(d.Shards, name)
	}
	sort.Strings(d.Shards)

	if len(d.Shards) > p.maxShards {
		d.Reason = ReasonTooManyShards
		p.skipped.Add(1)
		return d
	}

	for _, name := range d.Shards {
		if p.cache.Has(name) {
			continue
		}
		d.Scheduled = append(d.Scheduled, name)
	}
	if len(d.Scheduled) == 0 {
		d.Reason = ReasonAlreadyResident
		return d
	}

	for _, name := range d.Scheduled {
		if !p.track() {
			break
		}
		p.scheduled.Add(1)
		go func() {
			defer p.wg.Done()
			p.runBackground(name)
		}()
	}
	d.Reason = ReasonStarted
	return d
}

// Load returns a detail shard, fetching it in the foreground if needed.
func (p *Prefetcher) Load(ctx context.Context, name string) (*detail.Shard, error) {
	return p.cache.Load(ctx, name, func(fctx context.Context) (*detail.Shard, error) {
		return p.fetch(fctx, name, false)
	})
}

// Entry returns the detail record of a location.
func (p *Prefetcher) Entry(ctx context.Context, id model.LocationID) (*detail.Entry, bool, error) {
	sh, err := p.Load(ctx, shard.DetailID(id))
	if err != nil {
		return nil, false, err
	}
	e, ok := sh.Get(id)
	return e, ok, nil
}

// Wait blocks until all started background fetches have finished.
func (p *Prefetcher) Wait() {
	p.wg.Wait()
}

// Close cancels pending and running background fetches.
func (p *Prefetcher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Stats is a snapshot of prefetch counters.
type Stats struct {
	Cache     cache.Stats
	Hovers    int64
	Scheduled int64
	Skipped   int64
}

// Stats returns a snapshot of the prefetch counters.
func (p *Prefetcher) Stats() Stats {
	return Stats{
		Cache:     p.cache.Stats(),
		Hovers:    p.hovers.Load(),
		Scheduled: p.scheduled.Load(),
		Skipped:   p.skipped.Load(),
	}
}

func (p *Prefetcher) track() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.wg.Add(1)
	return true
}

func (p *Prefetcher) runBackground(name string) {
	// The cache never evicts, so a spent budget stays spent. Leave the shard
	// to the foreground path instead of downloading it only to discard it.
	if p.rc.MemoryExhausted() {
		p.logger.Debug("detail prefetch skipped, memory budget spent", "shard", name)
		return
	}
	err := p.rc.Run(p.ctx, func(ctx context.Context) error {
		_, err := p.cache.Load(ctx, name, func(fctx context.Context) (*detail.Shard, error) {
			return p.fetch(fctx, name, true)
		})
		return err
	})
	if err != nil && p.ctx.Err() == nil {
		p.logger.Debug("detail prefetch failed", "shard", name, "error", err)
	}
}

func (p *Prefetcher) fetch(ctx context.Context, name string, background bool) (*detail.Shard, error) {
	blobName := p.layout.Detail(name)
	if background && p.rc.MemoryExhausted() {
		return nil, fmt.Errorf("fetch %s: %w", blobName, resource.ErrMemoryLimitExceeded)
	}
	start := time.Now()

	data, err := blobstore.ReadAll(ctx, p.store, blobName)
	ev := Event{Shard: name, Name: blobName, Bytes: len(data), Background: background}
	if err == nil && background {
		if err = p.rc.AcquireIO(ctx, len(data)); err == nil {
			err = p.rc.AcquireMemory(int64(len(data)))
		}
	}
	ev.Duration = time.Since(start)
	if err != nil {
		ev.Err = err
		p.emit(ev)
		p.logger.WarnContext(ctx, "detail shard fetch failed", "shard", name, "name", blobName, "background", background, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", blobName, err)
	}

	sh := detail.NewShard()
	if err := codec.Decode(p.codec, p.comp, data, sh); err != nil {
		ev.DecodeErr = err
		p.emit(ev)
		p.logger.WarnContext(ctx, "detail shard decode failed", "shard", name, "name", blobName, "error", err)
		return detail.NewShard(), nil
	}
	if sh.Dropped > 0 {
		p.logger.WarnContext(ctx, "detail shard entries dropped", "shard", name, "dropped", sh.Dropped)
	}

	p.emit(ev)
	p.logger.DebugContext(ctx, "detail shard loaded", "shard", name, "locations", sh.Len(), "background", background)
	return sh, nil
}

func (p *Prefetcher) emit(ev Event) {
	if p.onFetch != nil {
		p.onFetch(ev)
	}
}
