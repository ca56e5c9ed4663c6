package dom

import (
	"strconv"
	"strings"
)

// Layout annotation attributes. The capture step writes them onto every
// element of the live page before serializing it, so a Snapshot can answer
// geometry and visibility questions without a browser.
const (
	// AttrBox holds "x,y,width,height" in CSS pixels, document coordinates.
	AttrBox = "data-sc-box"

	// AttrVisible is "1" when the element is rendered and not hidden, "0" otherwise.
	AttrVisible = "data-sc-visible"

	// AttrStyle holds a subset of the computed style as "prop:value;prop:value".
	AttrStyle = "data-sc-style"
)

// Rect is an element's bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a viewport or window size in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// parseBox parses an AttrBox value. Malformed values report ok=false.
func parseBox(v string) (Rect, bool) {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return Rect{}, false
	}
	var f [4]float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Rect{}, false
		}
		f[i] = n
	}
	return Rect{X: f[0], Y: f[1], Width: f[2], Height: f[3]}, true
}

// FormatBox renders r in AttrBox format.
func FormatBox(r Rect) string {
	return strings.Join([]string{
		strconv.FormatFloat(r.X, 'f', -1, 64),
		strconv.FormatFloat(r.Y, 'f', -1, 64),
		strconv.FormatFloat(r.Width, 'f', -1, 64),
		strconv.FormatFloat(r.Height, 'f', -1, 64),
	}, ",")
}

// parseDeclarations parses "a:b; c:d" into a lower-cased property map.
// Used both for AttrStyle and for inline style attributes.
func parseDeclarations(v string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(v, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		if prop == "" {
			continue
		}
		out[prop] = val
	}
	return out
}
