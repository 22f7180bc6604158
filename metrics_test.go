package streetsearch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordSearch(2, 10, 2*time.Millisecond, nil)
	m.RecordSearch(1, 0, 4*time.Millisecond, errors.New("boom"))
	m.RecordShardFetch(KindIndex, 100, time.Millisecond, nil)
	m.RecordShardFetch(KindDetail, 50, time.Millisecond, errors.New("boom"))
	m.RecordDecodeError(KindIndex)
	m.RecordSuperseded()
	m.RecordPrefetch("started")
	m.RecordPrefetch("too_many_shards")
	m.RecordPrefetch("empty")
	m.RecordSelection(true, time.Millisecond)
	m.RecordSelection(false, time.Millisecond)

	s := m.GetStats()
	assert.Equal(t, int64(2), s.SearchCount)
	assert.Equal(t, int64(1), s.SearchErrors)
	assert.Equal(t, int64(3*time.Millisecond), s.SearchAvgNanos)
	assert.Equal(t, int64(10), s.SearchMatches)
	assert.Equal(t, int64(2), s.FetchCount)
	assert.Equal(t, int64(1), s.FetchErrors)
	assert.Equal(t, int64(150), s.FetchBytes)
	assert.Equal(t, int64(1), s.IndexFetches)
	assert.Equal(t, int64(1), s.DetailFetches)
	assert.Equal(t, int64(1), s.DecodeErrors)
	assert.Equal(t, int64(1), s.Superseded)
	assert.Equal(t, int64(1), s.PrefetchStarted)
	assert.Equal(t, int64(1), s.PrefetchSkipped)
	assert.Equal(t, int64(2), s.SelectionCount)
	assert.Equal(t, int64(1), s.SelectionRefined)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	m := &BasicMetricsCollector{}
	assert.Equal(t, int64(0), m.GetStats().SearchAvgNanos)

	var _ MetricsCollector = NoopMetricsCollector{}
	var _ MetricsCollector = m
}
