package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/streetsearch/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Mask returns a random non-zero directional mask.
func (r *RNG) Mask() model.Mask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Mask(r.rand.Intn(255) + 1)
}

// Shuffle shuffles s in place.
func (r *RNG) Shuffle(s []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s where s is the skew parameter. Tag frequencies in real
// image-caption data follow this shape.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Dataset generates a random dataset with numLocations locations (IDs
// 1..numLocations) and numTags tags named "tag-<n>". Each location carries
// between one and four Zipf-distributed tags with random masks. A few
// postings point at IDs missing from the catalog.
func (r *RNG) Dataset(numLocations, numTags int) *Dataset {
	ds := NewDataset()
	for id := 1; id <= numLocations; id++ {
		ds.AddLocation(model.LocationID(id), 40.7+float64(id)*1e-5, -74.0)
	}

	postings := make(map[string]Postings, numTags)
	for id := 1; id <= numLocations; id++ {
		n := 1 + r.Intn(4)
		for i := 0; i < n; i++ {
			tag := fmt.Sprintf("tag-%d", r.Zipf(numTags, 1.1))
			if postings[tag] == nil {
				postings[tag] = make(Postings)
			}
			postings[tag][model.LocationID(id)] |= r.Mask()
		}
	}
	tags := make([]string, 0, len(postings))
	for tag := range postings {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		p := postings[tag]
		// Orphan posting outside the catalog.
		p[model.LocationID(numLocations+1+r.Intn(1000))] = r.Mask()
		ds.AddTag(tag, p)
	}
	return ds
}
