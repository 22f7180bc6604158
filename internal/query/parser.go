package query

import (
	"regexp"
	"strings"

	"github.com/hupe1980/streetsearch/model"
)

var tokenRE = regexp.MustCompile(`"([^"]+)"|([^\s"]+)`)

// Parse splits raw into segments. Blank segments and segments without any
// term are dropped, so the result may be empty.
func Parse(raw string) []model.Segment {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var segments []model.Segment
	for _, part := range strings.Split(raw, ",") {
		label := strings.TrimSpace(part)
		if label == "" {
			continue
		}
		terms := parseTerms(label)
		if len(terms) == 0 {
			continue
		}
		segments = append(segments, model.Segment{Label: label, Terms: terms})
	}
	return segments
}

func parseTerms(segment string) []model.Term {
	var terms []model.Term
	for _, m := range tokenRE.FindAllStringSubmatch(segment, -1) {
		switch {
		case m[1] != "":
			for _, w := range strings.Fields(m[1]) {
				terms = append(terms, model.Term{Text: strings.ToLower(w), Exact: true})
			}
		case m[2] != "":
			terms = append(terms, model.Term{Text: strings.ToLower(m[2])})
		}
	}
	return terms
}

// SuggestionsSuppressed reports whether autocomplete must stay silent for raw:
// blank input, or input that starts with a quote (exact-phrase mode).
func SuggestionsSuppressed(raw string) bool {
	return strings.TrimSpace(raw) == "" || strings.HasPrefix(raw, `"`)
}

// Normalize lower-cases raw, trims it and strips all quote characters.
func Normalize(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), `"`, "")
}
