package layout

import (
	"regexp"
	"strconv"
	"strings"
)

// Fallback product size in inches when the data has none.
const (
	DefaultWidthInches  = 3.0
	DefaultHeightInches = 6.0
)

// dimensionPattern captures a leading number followed by an optional unit
// token such as `in`, `inch`, `inches` or `"`.
var dimensionPattern = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+))\s*(?:[a-zA-Z]+\.?|"|'')?$`)

// ParseDimension parses a size like "6", "6 in" or `4.5"`. Empty,
// non-numeric or non-positive values return fallback.
func ParseDimension(raw string, fallback float64) float64 {
	m := dimensionPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return fallback
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// ParseWidth parses a width, falling back to DefaultWidthInches.
func ParseWidth(raw string) float64 {
	return ParseDimension(raw, DefaultWidthInches)
}

// ParseHeight parses a height, falling back to DefaultHeightInches.
func ParseHeight(raw string) float64 {
	return ParseDimension(raw, DefaultHeightInches)
}
