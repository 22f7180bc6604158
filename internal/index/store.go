package index

import (
	"sort"
	"sync"
)

// Store is the union of all merged shards viewed as one mapping
// tag -> postings. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tags   map[string]Postings
	merges int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tags: make(map[string]Postings),
	}
}

// Merge adds every tag of sh to the store. A tag already present is replaced.
// It returns the number of tags merged.
func (s *Store) Merge(sh *Shard) int {
	if sh == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for tag, postings := range sh.Tags {
		s.tags[tag] = postings
	}
	s.merges++
	return len(sh.Tags)
}

// Range calls fn for every tag until fn returns false.
// The store must not be modified from within fn.
func (s *Store) Range(fn func(tag string, postings Postings) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for tag, postings := range s.tags {
		if !fn(tag, postings) {
			return
		}
	}
}

// Postings returns the postings of tag.
func (s *Store) Postings(tag string) (Postings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.tags[tag]
	return p, ok
}

// LocationCount returns the number of distinct locations tagged with tag,
// or 0 if the tag is not loaded.
func (s *Store) LocationCount(tag string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags[tag])
}

// Len returns the number of distinct tags.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}

// Merges returns the number of shards merged so far.
func (s *Store) Merges() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merges
}

// Tags returns all loaded tags in sorted order.
func (s *Store) Tags() []string {
	s.mu.RLock()
	tags := make([]string, 0, len(s.tags))
	for tag := range s.tags {
		tags = append(tags, tag)
	}
	s.mu.RUnlock()

	sort.Strings(tags)
	return tags
}
