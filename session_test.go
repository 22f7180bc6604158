package streetsearch

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/streetsearch/internal/shard"
	"github.com/hupe1980/streetsearch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, s *Session) *Result {
	t.Helper()
	select {
	case res, ok := <-s.Results():
		require.True(t, ok, "results channel closed")
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no result published")
		return nil
	}
}

func TestSession_DebouncesSubmissions(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	eng := newEngine(t, testutil.NewCountingStore(fixture().MustMemoryStore()), WithMetricsCollector(metrics))
	s := eng.NewSession(WithSessionDebounce(20 * time.Millisecond))
	defer s.Close()

	s.Submit("c")
	s.Submit("cof")
	gen := s.Submit("coffee shop")
	assert.Equal(t, uint64(3), gen)

	res := receive(t, s)
	assert.Equal(t, "coffee shop", res.Query)
	assert.Equal(t, gen, res.Generation)
	assert.Equal(t, ids(3), res.IDs())

	assert.Same(t, res, s.Latest())
	assert.Same(t, res, eng.Latest())
	assert.Equal(t, int64(0), s.Superseded())

	// Only the last submission ran a search.
	assert.Equal(t, int64(1), metrics.GetStats().SearchCount)
}

func TestSession_BlankQueryPublishesImmediately(t *testing.T) {
	eng := newEngine(t, testutil.NewCountingStore(fixture().MustMemoryStore()))
	s := eng.NewSession(WithSessionDebounce(time.Hour))
	defer s.Close()

	s.Submit("coffee")
	gen := s.Submit("   ")

	select {
	case res := <-s.Results():
		assert.Equal(t, gen, res.Generation)
		assert.True(t, res.Empty())
	default:
		t.Fatal("blank query was not published synchronously")
	}
}

func TestSession_DropsSupersededResult(t *testing.T) {
	ds := fixture()
	store := testutil.NewCountingStore(ds.MustMemoryStore())
	metrics := &BasicMetricsCollector{}
	eng := newEngine(t, store, WithMetricsCollector(metrics))
	s := eng.NewSession(WithSessionDebounce(0))
	defer s.Close()

	name := ds.Layout.Index(shard.Of("east"))
	started := make(chan struct{}, 1)
	store.OnRead(func(n string) {
		if n == name {
			select {
			case started <- struct{}{}:
			default:
			}
		}
	})
	release := store.Hold(name)

	s.Submit(`"east"`)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("search did not start")
	}

	gen := s.Submit("")
	res := receive(t, s)
	assert.Equal(t, gen, res.Generation)

	release()
	assert.Eventually(t, func() bool {
		return s.Superseded() == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, gen, s.Latest().Generation)
	assert.True(t, eng.Latest().Empty())
	assert.Equal(t, int64(1), metrics.GetStats().Superseded)

	select {
	case res := <-s.Results():
		t.Fatalf("superseded result published: %+v", res)
	default:
	}
}

func TestSession_Close(t *testing.T) {
	eng := newEngine(t, testutil.NewCountingStore(fixture().MustMemoryStore()))
	s := eng.NewSession(WithSessionDebounce(time.Hour), WithResultBuffer(4))

	s.Submit("coffee")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := <-s.Results()
	assert.False(t, ok)

	s.Submit("coffee")
	assert.Nil(t, s.Latest())
}

func TestSession_UsesEngineDebounce(t *testing.T) {
	eng := newEngine(t, testutil.NewCountingStore(fixture().MustMemoryStore()), WithDebounce(time.Millisecond))
	s := eng.NewSession()
	defer s.Close()

	s.Submit(`"west"`)
	res := receive(t, s)
	assert.Equal(t, ids(7), res.IDs())

	_, err := eng.SelectLocation(context.Background(), 7)
	require.NoError(t, err)
}
