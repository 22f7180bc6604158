// Package palette assigns display colors to query segments.
package palette

// Theme is a preset color pair.
type Theme struct {
	ID         string
	Name       string
	Background string
	Highlight  string
}

// DefaultThemeID is used when no theme is configured.
const DefaultThemeID = "nyc"

// Order is significant: segment colors cycle through it.
var presets = []Theme{
	{ID: "classic", Name: "Classic", Background: "#3b82f6", Highlight: "#ef4444"},
	{ID: "forest", Name: "Forest", Background: "#059669", Highlight: "#fbbf24"},
	{ID: "ocean", Name: "Ocean", Background: "#0ea5e9", Highlight: "#a855f7"},
	{ID: "nyc", Name: "Taxi", Background: "#64748b", Highlight: "#eab308"},
	{ID: "neon", Name: "Neon", Background: "#2dd4bf", Highlight: "#f472b6"},
	{ID: "sunset", Name: "Sunset", Background: "#f97316", Highlight: "#8b5cf6"},
	{ID: "minimal", Name: "Mono", Background: "#171717", Highlight: "#e5e5e5"},
	{ID: "nature", Name: "Earth", Background: "#57534e", Highlight: "#84cc16"},
}

// Presets returns the preset themes in cycle order.
func Presets() []Theme {
	return append([]Theme(nil), presets...)
}

// Lookup returns a preset theme by ID.
func Lookup(id string) (Theme, bool) {
	for _, t := range presets {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// SegmentColor returns the color of segment idx given the base highlight.
// Segment 0 uses base; segment i uses the highlight i themes after the theme
// whose highlight is base (or after the first theme for custom colors).
func SegmentColor(idx int, base string) string {
	if idx <= 0 {
		return base
	}
	start := 0
	for i, t := range presets {
		if t.Highlight == base {
			start = i
			break
		}
	}
	return presets[(start+idx)%len(presets)].Highlight
}

// Palette colors the segments of one query.
type Palette struct {
	base      string
	overrides map[int]string
}

// New creates a palette from a base highlight color and optional
// per-segment theme overrides (segment index -> theme ID).
func New(base string, overrides map[int]string) *Palette {
	p := &Palette{base: base, overrides: make(map[int]string, len(overrides))}
	for k, v := range overrides {
		p.overrides[k] = v
	}
	return p
}

// ForTheme creates a palette based on a preset theme, falling back to
// DefaultThemeID for unknown IDs.
func ForTheme(id string, overrides map[int]string) *Palette {
	t, ok := Lookup(id)
	if !ok {
		t, _ = Lookup(DefaultThemeID)
	}
	return New(t.Highlight, overrides)
}

// Base returns the base highlight color.
func (p *Palette) Base() string {
	return p.base
}

// Color returns the color of segment idx. An override naming an unknown
// theme falls back to the base color.
func (p *Palette) Color(idx int) string {
	if id, ok := p.overrides[idx]; ok {
		if t, ok := Lookup(id); ok {
			return t.Highlight
		}
		return p.base
	}
	return SegmentColor(idx, p.base)
}
