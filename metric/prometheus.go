package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streetsearch"

// PrometheusCollector records engine metrics as Prometheus metrics.
// It satisfies streetsearch.MetricsCollector.
type PrometheusCollector struct {
	SearchesTotal     *prometheus.CounterVec
	SearchDuration    prometheus.Histogram
	SearchMatches     prometheus.Histogram
	SearchSegments    prometheus.Histogram
	FetchesTotal      *prometheus.CounterVec
	FetchBytes        *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	DecodeErrorsTotal *prometheus.CounterVec
	SupersededTotal   prometheus.Counter
	PrefetchTotal     *prometheus.CounterVec
	SelectionsTotal   *prometheus.CounterVec
	SelectionDuration prometheus.Histogram
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "total",
				Help:      "Total number of evaluated queries",
			},
			[]string{"status"},
		),

		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "duration_seconds",
				Help:      "Query duration including shard fetches",
				Buckets:   prometheus.DefBuckets,
			},
		),

		SearchMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "matches",
				Help:      "Number of matching locations per query",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),

		SearchSegments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "search",
				Name:      "segments",
				Help:      "Number of segments per query",
				Buckets:   prometheus.LinearBuckets(1, 1, 8),
			},
		),

		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "total",
				Help:      "Total number of blob fetches",
			},
			[]string{"kind", "status"},
		),

		FetchBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "bytes_total",
				Help:      "Total bytes fetched",
			},
			[]string{"kind"},
		),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "Blob fetch duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		DecodeErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "decode_errors_total",
				Help:      "Total number of payloads that could not be decoded",
			},
			[]string{"kind"},
		),

		SupersededTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "superseded_total",
				Help:      "Total number of live search results dropped for a newer query",
			},
		),

		PrefetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "prefetch",
				Name:      "decisions_total",
				Help:      "Eager prefetch decisions by reason",
			},
			[]string{"reason"},
		),

		SelectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "total",
				Help:      "Total number of location selections",
			},
			[]string{"hydrated"},
		),

		SelectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "selection",
				Name:      "duration_seconds",
				Help:      "Selection duration including the detail fetch",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		c.SearchesTotal,
		c.SearchDuration,
		c.SearchMatches,
		c.SearchSegments,
		c.FetchesTotal,
		c.FetchBytes,
		c.FetchDuration,
		c.DecodeErrorsTotal,
		c.SupersededTotal,
		c.PrefetchTotal,
		c.SelectionsTotal,
		c.SelectionDuration,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSearch records an evaluated query.
func (c *PrometheusCollector) RecordSearch(segments, matches int, duration time.Duration, err error) {
	c.SearchesTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.SearchDuration.Observe(duration.Seconds())
	c.SearchMatches.Observe(float64(matches))
	c.SearchSegments.Observe(float64(segments))
}

// RecordShardFetch records a blob fetch.
func (c *PrometheusCollector) RecordShardFetch(kind string, bytes int, duration time.Duration, err error) {
	c.FetchesTotal.WithLabelValues(kind, status(err)).Inc()
	c.FetchBytes.WithLabelValues(kind).Add(float64(bytes))
	c.FetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDecodeError records an undecodable payload.
func (c *PrometheusCollector) RecordDecodeError(kind string) {
	c.DecodeErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordSuperseded records a dropped live search result.
func (c *PrometheusCollector) RecordSuperseded() {
	c.SupersededTotal.Inc()
}

// RecordPrefetch records an eager prefetch decision.
func (c *PrometheusCollector) RecordPrefetch(reason string) {
	c.PrefetchTotal.WithLabelValues(reason).Inc()
}

// RecordSelection records a location selection.
func (c *PrometheusCollector) RecordSelection(hydrated bool, duration time.Duration) {
	label := "false"
	if hydrated {
		label = "true"
	}
	c.SelectionsTotal.WithLabelValues(label).Inc()
	c.SelectionDuration.Observe(duration.Seconds())
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
