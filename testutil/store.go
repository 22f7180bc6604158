package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/streetsearch/blobstore"
)

// ErrInjected is returned for fetches failed by a CountingStore.
var ErrInjected = errors.New("injected fetch failure")

// CountingStore wraps a BlobStore, counts whole-blob reads per name and can
// fail or hold reads on demand.
type CountingStore struct {
	inner blobstore.BlobStore

	mu     sync.Mutex
	reads  map[string]int
	fails  map[string]int
	gate   chan struct{}
	gated  map[string]bool
	before func(name string)
}

// NewCountingStore wraps inner.
func NewCountingStore(inner blobstore.BlobStore) *CountingStore {
	return &CountingStore{
		inner: inner,
		reads: make(map[string]int),
		fails: make(map[string]int),
		gated: make(map[string]bool),
	}
}

// Open delegates to the wrapped store.
func (s *CountingStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return s.inner.Open(ctx, name)
}

// ReadAll counts the read and applies injected failures and gates.
func (s *CountingStore) ReadAll(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	s.reads[name]++
	gate := s.gate
	wait := s.gated[name] && gate != nil
	fail := s.fails[name] > 0
	if fail {
		s.fails[name]--
	}
	before := s.before
	s.mu.Unlock()

	if before != nil {
		before(name)
	}
	if wait {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, ErrInjected
	}
	return blobstore.ReadAll(ctx, s.inner, name)
}

// Reads returns how many times name was read.
func (s *CountingStore) Reads(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[name]
}

// TotalReads returns the number of reads across all names.
func (s *CountingStore) TotalReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.reads {
		n += c
	}
	return n
}

// FailNext makes the next n reads of name fail with ErrInjected.
func (s *CountingStore) FailNext(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[name] = n
}

// Hold blocks reads of the given names until the returned release function
// is called.
func (s *CountingStore) Hold(names ...string) (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gate = gate
	for _, n := range names {
		s.gated[n] = true
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			for _, n := range names {
				delete(s.gated, n)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// OnRead registers a callback invoked at the start of every read.
func (s *CountingStore) OnRead(fn func(name string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.before = fn
}
