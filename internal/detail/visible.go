package detail

import (
	"math/rand/v2"
	"strings"
)

const (
	// MaxVisible caps the curated tag list.
	MaxVisible = 15
	// MaxRare caps how many rare tags are shown.
	MaxRare = 7
	// CommonThreshold is the location count from which a tag is "common".
	CommonThreshold = 1000

	emptyIndexCount = 10000
)

var blocklist = map[string]struct{}{
	"have": {}, "around": {}, "near": {}, "next": {}, "feature": {},
	"structure": {}, "looking": {}, "standing": {}, "front": {}, "seen": {},
	"view": {}, "time": {}, "urban": {}, "significant": {}, "visual": {},
	"representation": {}, "style": {}, "indicates": {}, "suggesting": {},
	"foreground": {}, "left": {}, "right": {}, "like": {}, "size": {},
	"captures": {}, "background": {}, "indicated": {},
}

// Blocked reports whether tag is a filler word never shown to users.
func Blocked(tag string) bool {
	_, ok := blocklist[strings.ToLower(tag)]
	return ok
}

// Counter reports how many locations carry a tag in the loaded index.
type Counter interface {
	LocationCount(tag string) int
	Len() int
}

// VisibleTags picks the tags to display for a location.
//
// Tags unknown to the loaded index are dropped unless the index is empty.
// Blocklisted words are dropped. The remainder is split into common and rare
// tags; at most MaxRare rare tags are kept and common tags fill up to
// MaxVisible. The result is shuffled with rng.
func VisibleTags(tags []string, counter Counter, rng *rand.Rand) []string {
	indexEmpty := counter == nil || counter.Len() == 0

	var common, rare []string
	for _, t := range tags {
		if Blocked(t) {
			continue
		}
		count := emptyIndexCount
		if !indexEmpty {
			count = counter.LocationCount(t)
			if count < 1 {
				continue
			}
		}
		if count >= CommonThreshold {
			common = append(common, t)
		} else {
			rare = append(rare, t)
		}
	}

	shuffle(rng, common)
	shuffle(rng, rare)

	if len(rare) > MaxRare {
		rare = rare[:MaxRare]
	}
	if room := MaxVisible - len(rare); len(common) > room {
		common = common[:room]
	}

	out := make([]string, 0, len(common)+len(rare))
	out = append(out, common...)
	out = append(out, rare...)
	shuffle(rng, out)
	return out
}

func shuffle(rng *rand.Rand, s []string) {
	swap := func(i, j int) { s[i], s[j] = s[j], s[i] }
	if rng == nil {
		rand.Shuffle(len(s), swap)
		return
	}
	rng.Shuffle(len(s), swap)
}
