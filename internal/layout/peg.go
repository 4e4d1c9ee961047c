// Package layout converts pegboard addresses and product sizes into pixel geometry.
package layout

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/harpa/backend/internal/domain"
)

// pegPattern matches tokens like "R02 C03", "r2c3" or "R 12  C 4".
var pegPattern = regexp.MustCompile(`(?i)R\s*(\d+)\s*C\s*(\d+)`)

// DefaultPeg is where unparseable addresses land: visibly wrong, never fatal.
var DefaultPeg = domain.PegAddress{Row: 1, Col: 1, Defaulted: true}

// ParsePeg parses a peg token. Anything unparseable, including zero rows or
// columns, yields DefaultPeg.
func ParsePeg(token string) domain.PegAddress {
	m := pegPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return DefaultPeg
	}

	row, errRow := strconv.Atoi(m[1])
	col, errCol := strconv.Atoi(m[2])
	if errRow != nil || errCol != nil || row < 1 || col < 1 {
		return DefaultPeg
	}

	return domain.PegAddress{Row: row, Col: col}
}
