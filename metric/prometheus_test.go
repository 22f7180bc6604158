package metric_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hupe1980/streetsearch"
	"github.com/hupe1980/streetsearch/metric"
	"github.com/hupe1980/streetsearch/model"
	"github.com/hupe1980/streetsearch/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ streetsearch.MetricsCollector = (*metric.PrometheusCollector)(nil)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metric.NewPrometheusCollector(reg)

	c.RecordSearch(2, 10, time.Millisecond, nil)
	c.RecordSearch(1, 0, time.Millisecond, errors.New("boom"))
	c.RecordShardFetch(streetsearch.KindIndex, 128, time.Millisecond, nil)
	c.RecordShardFetch(streetsearch.KindIndex, 0, time.Millisecond, errors.New("boom"))
	c.RecordDecodeError(streetsearch.KindDetail)
	c.RecordSuperseded()
	c.RecordPrefetch("started")
	c.RecordSelection(true, time.Millisecond)

	assert.Equal(t, 1.0, promtest.ToFloat64(c.SearchesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.SearchesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.FetchesTotal.WithLabelValues("index", "error")))
	assert.Equal(t, 128.0, promtest.ToFloat64(c.FetchBytes.WithLabelValues("index")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.DecodeErrorsTotal.WithLabelValues("detail")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.SupersededTotal))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.PrefetchTotal.WithLabelValues("started")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.SelectionsTotal.WithLabelValues("true")))
}

func TestPrometheusCollector_Engine(t *testing.T) {
	ds := testutil.NewDataset().
		AddLocation(1, 0, 0).
		AddTag("tree", testutil.Postings{1: model.North})

	reg := prometheus.NewRegistry()
	c := metric.NewPrometheusCollector(reg)

	eng, err := streetsearch.New(ds.MustMemoryStore(), streetsearch.WithMetricsCollector(c))
	require.NoError(t, err)
	defer eng.Close()

	ctx := context.Background()
	require.NoError(t, eng.LoadLocations(ctx))
	_, err = eng.Search(ctx, `"tree"`)
	require.NoError(t, err)

	assert.Equal(t, 1.0, promtest.ToFloat64(c.FetchesTotal.WithLabelValues("index", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.FetchesTotal.WithLabelValues("locations", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.SearchesTotal.WithLabelValues("ok")))

	srv := httptest.NewServer(metric.Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "streetsearch_search_total")
	assert.Contains(t, string(body), `streetsearch_fetch_total{kind="index",status="ok"} 1`)
}
