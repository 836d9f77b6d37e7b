// Package dedupe scores buyer records against each other, ranks likely
// duplicates, groups them into clusters and merges confirmed pairs.
//
// Everything in this package is a pure function of its inputs.
package dedupe

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizePhone strips every non-digit character. It does not validate
// length or country code, so "15551234567" and "5551234567" stay distinct.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName standardizes a person or company name for matching by:
//  1. Converting to lowercase
//  2. Trimming whitespace
//  3. Stripping everything that is not a word character or whitespace
//  4. Collapsing whitespace runs into single spaces
func NormalizeName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return ""
	}
	name = nonWordRe.ReplaceAllString(name, "")
	return whitespaceRe.ReplaceAllString(name, " ")
}
