package streetsearch

import (
	"sync/atomic"
	"time"
)

// Fetch kinds reported to MetricsCollector.RecordShardFetch.
const (
	KindIndex     = "index"
	KindDetail    = "detail"
	KindManifest  = "manifest"
	KindLocations = "locations"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the metric
// package ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordSearch is called after each evaluated query.
	// segments is the number of parsed segments, matches the size of the
	// union, err is nil if successful.
	RecordSearch(segments, matches int, duration time.Duration, err error)

	// RecordShardFetch is called after every blob fetch. kind is one of the
	// Kind constants.
	RecordShardFetch(kind string, bytes int, duration time.Duration, err error)

	// RecordDecodeError is called when a fetched payload could not be decoded.
	RecordDecodeError(kind string)

	// RecordSuperseded is called when a session drops an outdated result.
	RecordSuperseded()

	// RecordPrefetch is called with the outcome of an eager prefetch decision.
	RecordPrefetch(reason string)

	// RecordSelection is called after each SelectLocation.
	// refined reports whether detail data refined the bearing.
	RecordSelection(refined bool, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordShardFetch(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDecodeError(string)                           {}
func (NoopMetricsCollector) RecordSuperseded()                                  {}
func (NoopMetricsCollector) RecordPrefetch(string)                              {}
func (NoopMetricsCollector) RecordSelection(bool, time.Duration)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	SearchMatches    atomic.Int64
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	FetchBytes       atomic.Int64
	IndexFetches     atomic.Int64
	DetailFetches    atomic.Int64
	DecodeErrors     atomic.Int64
	Superseded       atomic.Int64
	PrefetchStarted  atomic.Int64
	PrefetchSkipped  atomic.Int64
	SelectionCount   atomic.Int64
	SelectionRefined atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_, matches int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchMatches.Add(int64(matches))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordShardFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShardFetch(kind string, bytes int, _ time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchBytes.Add(int64(bytes))
	if err != nil {
		b.FetchErrors.Add(1)
	}
	switch kind {
	case KindIndex:
		b.IndexFetches.Add(1)
	case KindDetail:
		b.DetailFetches.Add(1)
	}
}

// RecordDecodeError implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecodeError(string) {
	b.DecodeErrors.Add(1)
}

// RecordSuperseded implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSuperseded() {
	b.Superseded.Add(1)
}

// RecordPrefetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrefetch(reason string) {
	switch reason {
	case "started":
		b.PrefetchStarted.Add(1)
	case "too_many_matches", "too_many_shards", "memory_budget":
		b.PrefetchSkipped.Add(1)
	}
}

// RecordSelection implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelection(refined bool, _ time.Duration) {
	b.SelectionCount.Add(1)
	if refined {
		b.SelectionRefined.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:      b.SearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		SearchAvgNanos:   b.getAvgSearchNanos(),
		SearchMatches:    b.SearchMatches.Load(),
		FetchCount:       b.FetchCount.Load(),
		FetchErrors:      b.FetchErrors.Load(),
		FetchBytes:       b.FetchBytes.Load(),
		IndexFetches:     b.IndexFetches.Load(),
		DetailFetches:    b.DetailFetches.Load(),
		DecodeErrors:     b.DecodeErrors.Load(),
		Superseded:       b.Superseded.Load(),
		PrefetchStarted:  b.PrefetchStarted.Load(),
		PrefetchSkipped:  b.PrefetchSkipped.Load(),
		SelectionCount:   b.SelectionCount.Load(),
		SelectionRefined: b.SelectionRefined.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount      int64
	SearchErrors     int64
	SearchAvgNanos   int64
	SearchMatches    int64
	FetchCount       int64
	FetchErrors      int64
	FetchBytes       int64
	IndexFetches     int64
	DetailFetches    int64
	DecodeErrors     int64
	Superseded       int64
	PrefetchStarted  int64
	PrefetchSkipped  int64
	SelectionCount   int64
	SelectionRefined int64
}
