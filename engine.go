package streetsearch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/streetsearch/blobstore"
	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/bearing"
	"github.com/hupe1980/streetsearch/internal/catalog"
	"github.com/hupe1980/streetsearch/internal/detail"
	"github.com/hupe1980/streetsearch/internal/index"
	"github.com/hupe1980/streetsearch/internal/palette"
	"github.com/hupe1980/streetsearch/internal/prefetch"
	"github.com/hupe1980/streetsearch/internal/query"
	"github.com/hupe1980/streetsearch/internal/resolver"
	"github.com/hupe1980/streetsearch/internal/resource"
	"github.com/hupe1980/streetsearch/internal/searcher"
	"github.com/hupe1980/streetsearch/manifest"
	"github.com/hupe1980/streetsearch/model"
)

// Engine answers concept queries over a published dataset.
//
// Everything fetched is kept for the lifetime of the engine. An Engine is
// safe for concurrent use.
type Engine struct {
	opts    options
	store   blobstore.BlobStore
	logger  *Logger
	metrics MetricsCollector

	index      *index.Store
	manifest   *manifest.Loader
	resolver   *resolver.Resolver
	prefetcher *prefetch.Prefetcher
	rc         *resource.Controller
	palette    *palette.Palette

	catalogMu sync.Mutex
	catalog   atomic.Pointer[catalog.Catalog]

	// latest is the most recently published result; selection derives its
	// instant bearing and query refinement from it.
	latest atomic.Pointer[Result]

	rngMu sync.Mutex
	rng   *rand.Rand

	closed atomic.Bool
}

// New creates an engine reading the dataset from store.
//
// Example:
//
//	store := blobstore.NewHTTPStore("https://cdn.example.com/")
//	eng, err := streetsearch.New(store, streetsearch.WithLogLevel(slog.LevelDebug))
func New(store blobstore.BlobStore, optFns ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	o := applyOptions(optFns)
	e := &Engine{
		opts:    o,
		store:   store,
		logger:  o.logger,
		metrics: o.metricsCollector,
		index:   index.NewStore(),
		palette: palette.ForTheme(o.theme, o.segmentThemes),
	}

	if o.seeded {
		e.rng = rand.New(rand.NewPCG(o.seed, o.seed))
	} else {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	slogger := o.logger.Logger

	e.manifest = manifest.NewLoader(store, o.layout.Manifest(),
		manifest.WithCodec(o.codec),
		manifest.WithCompression(o.compression),
		manifest.WithLogger(slogger),
	)

	e.resolver = resolver.New(store, e.index, e.manifest,
		resolver.WithLayout(o.layout),
		resolver.WithCodec(o.codec),
		resolver.WithCompression(o.compression),
		resolver.WithConcurrency(o.fetchConcurrency),
		resolver.WithLogger(slogger),
		resolver.WithFetchHook(e.onIndexFetch),
	)

	e.rc = resource.NewController(resource.Config{
		MemoryLimitBytes:     o.prefetchMemLimit,
		MaxBackgroundWorkers: o.prefetchWorkers,
		IOLimitBytesPerSec:   o.prefetchRate,
	})

	e.prefetcher = prefetch.New(store,
		prefetch.WithLayout(o.layout),
		prefetch.WithCodec(o.codec),
		prefetch.WithCompression(o.compression),
		prefetch.WithLogger(slogger),
		prefetch.WithController(e.rc),
		prefetch.WithHoverDelay(o.hoverDelay),
		prefetch.WithCeilings(o.prefetchMatches, o.prefetchShards),
		prefetch.WithFetchHook(e.onDetailFetch),
	)

	return e, nil
}

func (e *Engine) onIndexFetch(ev resolver.FetchEvent) {
	e.metrics.RecordShardFetch(KindIndex, ev.Bytes, ev.Duration, ev.Err)
	if ev.DecodeErr != nil {
		e.metrics.RecordDecodeError(KindIndex)
	}
}

func (e *Engine) onDetailFetch(ev prefetch.Event) {
	e.metrics.RecordShardFetch(KindDetail, ev.Bytes, ev.Duration, ev.Err)
	if ev.DecodeErr != nil {
		e.metrics.RecordDecodeError(KindDetail)
	}
}

// LoadLocations fetches the location catalog. It must succeed before
// Search can be used; calling it again after success is a no-op.
func (e *Engine) LoadLocations(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if e.catalog.Load() != nil {
		return nil
	}

	e.catalogMu.Lock()
	defer e.catalogMu.Unlock()

	if e.catalog.Load() != nil {
		return nil
	}

	name := e.opts.layout.Locations()
	start := time.Now()

	data, err := blobstore.ReadAll(ctx, e.store, name)
	e.metrics.RecordShardFetch(KindLocations, len(data), time.Since(start), err)
	e.logger.LogShardFetch(ctx, KindLocations, name, len(data), err)
	if err != nil {
		err = newFetchError(KindLocations, name, err)
		e.logger.LogLocations(ctx, 0, 0, err)
		return err
	}

	cat := &catalog.Catalog{}
	if err := codec.Decode(e.opts.codec, e.opts.compression, data, cat); err != nil {
		e.metrics.RecordDecodeError(KindLocations)
		err = newFetchError(KindLocations, name, err)
		e.logger.LogLocations(ctx, 0, 0, err)
		return err
	}

	e.catalog.Store(cat)
	e.logger.LogLocations(ctx, cat.Len(), cat.Dropped(), nil)
	return nil
}

// LoadManifest fetches the tag manifest. Without it fuzzy terms match
// nothing and Suggest returns nil. Failures are recoverable: the next call
// retries.
func (e *Engine) LoadManifest(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if e.manifest.Loaded() {
		return nil
	}

	start := time.Now()
	m, err := e.manifest.Load(ctx)
	e.metrics.RecordShardFetch(KindManifest, 0, time.Since(start), err)
	if err != nil {
		err = newFetchError(KindManifest, e.opts.layout.Manifest(), err)
		e.logger.LogManifest(ctx, 0, err)
		return err
	}
	e.logger.LogManifest(ctx, m.Len(), nil)
	return nil
}

// Search evaluates a query and makes its result the current one.
//
// Shards the query needs are fetched first; the query is evaluated only
// after every fetch has settled. Failed shards degrade the result instead of
// failing the search. A blank query returns an empty result.
func (e *Engine) Search(ctx context.Context, raw string) (*Result, error) {
	res, err := e.search(ctx, raw)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, res)
	return res, nil
}

// search evaluates raw without making the result current.
func (e *Engine) search(ctx context.Context, raw string) (*Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	segments := query.Parse(raw)
	if len(segments) == 0 {
		return emptyResult(raw), nil
	}

	cat := e.catalog.Load()
	if cat == nil {
		return nil, ErrCatalogNotLoaded
	}

	start := time.Now()

	rep, err := e.resolver.Ensure(ctx, segments)
	if err != nil {
		e.metrics.RecordSearch(len(segments), 0, time.Since(start), err)
		e.logger.LogSearch(ctx, raw, len(segments), 0, false, err)
		return nil, err
	}

	ev := searcher.Evaluate(segments, e.index, cat.Valid())

	res := &Result{
		Query:    raw,
		Segments: make([]Segment, len(ev.Segments)),
		Union:    ev.Union,
		Degraded: rep.Degraded(),
	}
	for i, sr := range ev.Segments {
		res.Segments[i] = Segment{
			Label: sr.Label,
			Terms: sr.Terms,
			Color: e.palette.Color(i),
			IDs:   sr.IDs,
			Masks: sr.Masks,
		}
	}
	for _, id := range rep.Required {
		if ferr, ok := rep.Failed[id]; ok {
			res.Failed = append(res.Failed, newFetchError(KindIndex, e.opts.layout.Index(id), ferr))
		}
	}

	e.metrics.RecordSearch(len(segments), res.Count(), time.Since(start), nil)
	e.logger.LogSearch(ctx, raw, len(segments), res.Count(), res.Degraded, nil)
	return res, nil
}

// publish makes res the current result and considers an eager prefetch of
// its detail shards.
func (e *Engine) publish(ctx context.Context, res *Result) {
	e.latest.Store(res)

	if !e.opts.prefetch || res.Empty() {
		return
	}
	d := e.prefetcher.Matches(res.Union)
	e.metrics.RecordPrefetch(string(d.Reason))
	e.logger.WithQuery(res.Query).LogPrefetch(ctx, string(d.Reason), d.Matches, len(d.Shards))
}

// Latest returns the current result, or nil before the first search.
func (e *Engine) Latest() *Result {
	return e.latest.Load()
}

// Suggest returns manifest tags containing raw, most frequent first as
// listed in the manifest. The minimum frequency is checked against the
// manifest's published counts, not the location counts of loaded shards.
// Quoted or blank input yields nil, as does an unloaded manifest.
func (e *Engine) Suggest(raw string) []string {
	if query.SuggestionsSuppressed(raw) {
		return nil
	}
	return e.manifest.Manifest().Suggest(raw, e.opts.suggestMinCount, e.opts.suggestLimit)
}

// SelectLocation resolves the bearing and tags of a location.
//
// The instant bearing comes from the location's mask in the current result.
// The detail shard is then loaded (joining any prefetch in flight) and the
// bearing refined: the first hydrated tag containing the current query wins,
// then the current result's mask, then the location's default bearing. A
// detail fetch failure leaves the instant bearing in place.
func (e *Engine) SelectLocation(ctx context.Context, id model.LocationID) (*Selection, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	cat := e.catalog.Load()
	if cat == nil {
		return nil, ErrCatalogNotLoaded
	}
	loc, ok := cat.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrLocationNotFound, id)
	}

	start := time.Now()
	latest := e.latest.Load()
	mask, inResult := latest.MaskOf(id)

	sel := &Selection{
		Location:       loc,
		Mask:           mask,
		InResult:       inResult,
		InstantBearing: bearing.First(mask),
		Source:         SourceNone,
	}
	sel.Bearing = sel.InstantBearing
	if inResult {
		sel.Source = SourceResult
	}

	log := e.logger.WithLocation(uint32(id))

	entry, found, err := e.prefetcher.Entry(ctx, id)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		log.WarnContext(ctx, "location detail unavailable", "error", err)
	case found:
		e.refine(sel, entry, latest)
	}

	e.metrics.RecordSelection(sel.Hydrated, time.Since(start))
	log.DebugContext(ctx, "location selected",
		"instant_bearing", sel.InstantBearing,
		"bearing", sel.Bearing,
		"source", string(sel.Source),
		"hydrated", sel.Hydrated,
	)
	return sel, nil
}

func (e *Engine) refine(sel *Selection, entry *detail.Entry, latest *Result) {
	sel.Tags = entry.Tags()
	sel.Location.Tags = sel.Tags
	sel.Hydrated = true

	if latest != nil {
		if b, ok := entry.Match(query.Normalize(latest.Query)); ok {
			sel.Bearing, sel.Source = b, SourceTag
			return
		}
	}
	if sel.InResult {
		return
	}
	if b, ok := entry.Default(); ok {
		sel.Bearing, sel.Source = b, SourceDefault
		return
	}
	sel.Bearing, sel.Source = 0, SourceNone
}

// HoverLocation hints that a location may be selected soon. Its detail
// shard is fetched in the background after a short debounce.
func (e *Engine) HoverLocation(id model.LocationID) {
	if e.closed.Load() {
		return
	}
	e.prefetcher.Hover(id)
}

// VisibleTags curates hydrated tags for display: filler words and tags
// unknown to the loaded index are dropped, rare tags are capped and the
// result is shuffled.
func (e *Engine) VisibleTags(tags []string) []string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return detail.VisibleTags(tags, e.index, e.rng)
}

// Location returns a catalog record.
func (e *Engine) Location(id model.LocationID) (model.Location, bool) {
	return e.catalog.Load().Get(id)
}

// Stats returns a snapshot of the engine state.
func (e *Engine) Stats() Stats {
	ps := e.prefetcher.Stats()
	m := e.manifest.Manifest()
	return Stats{
		Locations:         e.catalog.Load().Len(),
		ManifestLoaded:    m != nil,
		ManifestTags:      m.Len(),
		IndexTags:         e.index.Len(),
		IndexShards:       shardStats(e.resolver.Cache().Stats()),
		DetailShards:      shardStats(ps.Cache),
		Hovers:            ps.Hovers,
		PrefetchScheduled: ps.Scheduled,
		PrefetchSkipped:   ps.Skipped,
		PrefetchInFlight:  e.rc.InFlight(),
		PrefetchBytes:     e.rc.IOBytes(),
	}
}

// LoadedShards returns the hex names of the loaded index shards, sorted.
func (e *Engine) LoadedShards() []string {
	keys := e.resolver.Cache().Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Hex()
	}
	sort.Strings(out)
	return out
}

// Layout returns the blob layout the engine reads.
func (e *Engine) Layout() Layout {
	return e.opts.layout
}

// WaitPrefetch blocks until all background detail fetches have finished.
func (e *Engine) WaitPrefetch() {
	e.prefetcher.Wait()
}

// Close stops pending and running background fetches. Close is idempotent.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.prefetcher.Close()
	return nil
}

// IsClosed reports whether err stems from a closed engine.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
