package dedupe

import (
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// StringSimilarity returns a ratio in [0,1] describing how close a and b are:
// (longer - editDistance) / longer, with lengths counted in runes and unit
// insert/delete/substitute costs. Empty input scores 0, identical input 1.
// The result does not depend on argument order.
func StringSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longer, shorter := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		longer, shorter = shorter, longer
	}
	n := utf8.RuneCountInString(longer)

	dist := levenshtein.Distance(longer, shorter, nil)
	return float64(n-dist) / float64(n)
}
