package model

import "strings"

// Buyer priority labels.
const (
	PriorityVeryHigh = "VERY HIGH"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

var priorityRank = map[string]int{
	PriorityVeryHigh: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// PriorityRank returns the ordinal rank of a priority label. Unknown or empty
// labels rank lowest (0). Matching ignores case and surrounding whitespace.
func PriorityRank(p string) int {
	return priorityRank[strings.ToUpper(strings.TrimSpace(p))]
}

// HigherPriority returns the higher-ranked of a and b, preferring a on ties.
func HigherPriority(a, b string) string {
	if PriorityRank(b) > PriorityRank(a) {
		return b
	}
	return a
}
