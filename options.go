package streetsearch

import (
	"log/slog"
	"time"

	"github.com/hupe1980/streetsearch/codec"
	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/manifest"
)

// Layout maps dataset resources to blob names.
type Layout = shard.Layout

// DefaultLayout returns the layout used by published datasets:
// data/tags_manifest.json, data/index_shards/{hex}.json,
// data/bearings/{NN}.json and data/locations.json.
func DefaultLayout() Layout {
	return shard.DefaultLayout()
}

const (
	// DefaultFetchConcurrency bounds parallel index shard fetches per search.
	DefaultFetchConcurrency = 16

	// DefaultDebounce is the live-search debounce of a Session.
	DefaultDebounce = 500 * time.Millisecond

	// DefaultHoverDelay debounces hover-triggered detail fetches.
	DefaultHoverDelay = 20 * time.Millisecond

	// DefaultPrefetchMaxMatches is the exclusive match ceiling for eager prefetch.
	DefaultPrefetchMaxMatches = 2000

	// DefaultPrefetchMaxShards is the inclusive detail shard ceiling for eager prefetch.
	DefaultPrefetchMaxShards = 15

	// DefaultPrefetchWorkers bounds concurrent background detail fetches.
	DefaultPrefetchWorkers = 4

	// DefaultTheme is the base theme used to color segments.
	DefaultTheme = "nyc"
)

type options struct {
	codec            codec.Codec
	compression      codec.Compression
	layout           Layout
	metricsCollector MetricsCollector
	logger           *Logger

	fetchConcurrency int
	debounce         time.Duration
	hoverDelay       time.Duration

	prefetch         bool
	prefetchMatches  int
	prefetchShards   int
	prefetchWorkers  int64
	prefetchRate     int64
	prefetchMemLimit int64

	theme         string
	segmentThemes map[int]string

	suggestMinCount int
	suggestLimit    int

	seed   uint64
	seeded bool
}

// Option configures an Engine.
type Option func(*options)

// WithCodec configures the codec used for decoding dataset payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the compression of dataset payloads.
// Unless the layout was set explicitly, blob names get the matching suffix.
//
// Example:
//
//	eng, _ := streetsearch.New(store, streetsearch.WithCompression(codec.CompressionZSTD))
//	// fetches data/index_shards/1a.json.zst
func WithCompression(c codec.Compression) Option {
	return func(o *options) {
		o.compression = c
		o.layout.Suffix = c.Suffix()
	}
}

// WithLayout configures the blob names of the dataset resources.
func WithLayout(l Layout) Option {
	return func(o *options) {
		o.layout = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &streetsearch.BasicMetricsCollector{}
//	eng, _ := streetsearch.New(store, streetsearch.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, shard fetches: %d\n", stats.SearchCount, stats.IndexFetches)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithFetchConcurrency bounds the number of index shards fetched in
// parallel by one search. Values < 1 select DefaultFetchConcurrency.
func WithFetchConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultFetchConcurrency
		}
		o.fetchConcurrency = n
	}
}

// WithDebounce sets the default debounce of sessions created by the engine.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithHoverDelay sets the debounce of hover-triggered detail fetches.
func WithHoverDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.hoverDelay = d
		}
	}
}

// WithEagerPrefetch enables or disables eager detail prefetch after a
// search. It is enabled by default.
func WithEagerPrefetch(enabled bool) Option {
	return func(o *options) {
		o.prefetch = enabled
	}
}

// WithPrefetchCeilings sets the eager prefetch ceilings: a result is
// prefetched only if it has fewer than maxMatches locations spread over at
// most maxShards detail shards. Non-positive values keep the defaults.
func WithPrefetchCeilings(maxMatches, maxShards int) Option {
	return func(o *options) {
		if maxMatches > 0 {
			o.prefetchMatches = maxMatches
		}
		if maxShards > 0 {
			o.prefetchShards = maxShards
		}
	}
}

// WithPrefetchLimits bounds background detail fetches: workers concurrent
// fetches, bytesPerSec download rate and memoryBytes of fetched payload.
// Zero leaves a limit unset.
func WithPrefetchLimits(workers, bytesPerSec, memoryBytes int64) Option {
	return func(o *options) {
		if workers > 0 {
			o.prefetchWorkers = workers
		}
		o.prefetchRate = bytesPerSec
		o.prefetchMemLimit = memoryBytes
	}
}

// WithTheme sets the base theme that colors the first segment. Later
// segments cycle through the preset themes. Unknown IDs select DefaultTheme.
func WithTheme(id string) Option {
	return func(o *options) {
		o.theme = id
	}
}

// WithSegmentTheme overrides the theme of one segment position.
func WithSegmentTheme(segment int, id string) Option {
	return func(o *options) {
		if o.segmentThemes == nil {
			o.segmentThemes = make(map[int]string)
		}
		o.segmentThemes[segment] = id
	}
}

// WithSuggestions sets the minimum manifest frequency of a suggestion and
// the maximum number of suggestions. Non-positive values keep the defaults.
func WithSuggestions(minCount, limit int) Option {
	return func(o *options) {
		if minCount > 0 {
			o.suggestMinCount = minCount
		}
		if limit > 0 {
			o.suggestLimit = limit
		}
	}
}

// WithSeed makes the visible-tag shuffle deterministic.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		layout:           DefaultLayout(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fetchConcurrency: DefaultFetchConcurrency,
		debounce:         DefaultDebounce,
		hoverDelay:       DefaultHoverDelay,
		prefetch:         true,
		prefetchMatches:  DefaultPrefetchMaxMatches,
		prefetchShards:   DefaultPrefetchMaxShards,
		prefetchWorkers:  DefaultPrefetchWorkers,
		theme:            DefaultTheme,
		suggestMinCount:  manifest.DefaultMinCount,
		suggestLimit:     manifest.DefaultSuggestLimit,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
