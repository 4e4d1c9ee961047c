// Package upc turns raw scanner or keyboard text into canonical UPC digit strings.
package upc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Zero is the canonical form of input that carries no digits.
const Zero = "0"

// ocrConfusions maps look-alike characters to the digit a scanner most likely
// meant. Keys are upper case; lookups fold case first.
var ocrConfusions = map[rune]rune{
	'O': '0', 'Q': '0',
	'I': '1', 'L': '1', '|': '1',
	'S': '5', '$': '5',
	'B': '8',
	'Z': '2',
	'G': '6',
	'T': '7',
}

// Normalize canonicalizes a raw UPC by:
//  1. Folding compatibility forms (full-width digits) and trimming whitespace
//     and control characters
//  2. Replacing OCR look-alikes with digits (O/Q→0, I/L/|→1, S/$→5, B→8, Z→2, G→6, T→7)
//  3. Dropping every remaining non-digit
//  4. Dropping leading zeros
//  5. Returning "0" when nothing is left
//
// Normalize never fails and Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if d, ok := ocrConfusions[unicode.ToUpper(r)]; ok {
			r = d
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	out := strings.TrimLeft(b.String(), "0")
	if out == "" {
		return Zero
	}
	return out
}

// DropCheckDigit removes the trailing digit of a canonical UPC. It returns
// false when there is nothing left to compare after removal.
func DropCheckDigit(canonical string) (string, bool) {
	if len(canonical) < 2 {
		return "", false
	}
	return canonical[:len(canonical)-1], true
}

// HasDigits reports whether raw carries anything that normalizes to a real code.
func HasDigits(raw string) bool {
	return Normalize(raw) != Zero
}
