// Package normalizers provides field normalization for canonical blocklist records
package normalizers

import (
	"strings"
	"unicode"
)

// sentinels are the "not applicable" placeholder values the source feeds use.
// They normalize to omission, never to a stored literal.
var sentinels = map[string]struct{}{
	"na":             {},
	"n/a":            {},
	"n.a.":           {},
	"-":              {},
	"none":           {},
	"null":           {},
	"not applicable": {},
	"unknown":        {},
}

// IsBlank reports whether a raw value carries no information: empty,
// whitespace-only, or a known placeholder sentinel.
func IsBlank(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	_, ok := sentinels[s]
	return ok
}

// Clean trims a raw value and maps sentinels to the empty string.
func Clean(s string) string {
	if IsBlank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// listDelimiters are tried in order when a list-valued field arrives as a
// single delimiter-separated string.
var listDelimiters = []string{";", "|", ","}

// SplitList normalizes a list-valued field. It accepts a single
// delimiter-separated string, trims every token, and drops empty tokens and
// sentinels. A blank input yields an empty (never nil-sentinel) slice.
func SplitList(s string) []string {
	out := []string{}
	if IsBlank(s) {
		return out
	}

	delim := ""
	for _, d := range listDelimiters {
		if strings.Contains(s, d) {
			delim = d
			break
		}
	}

	if delim == "" {
		return append(out, strings.TrimSpace(s))
	}

	for _, tok := range strings.Split(s, delim) {
		if !IsBlank(tok) {
			out = append(out, strings.TrimSpace(tok))
		}
	}
	return out
}

// CleanList applies Clean to every element of an already-list-shaped input,
// dropping blanks and sentinels.
func CleanList(values []string) []string {
	out := []string{}
	for _, v := range values {
		if !IsBlank(v) {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

// NormalizeIdentifier canonicalizes national-ID-like values: trimmed and
// upper-cased for storage so lookups are case-insensitive.
func NormalizeIdentifier(s string) string {
	return strings.ToUpper(Clean(s))
}

// CollapseWhitespace reduces runs of whitespace to single spaces.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return b.String()
}

// NormalizeName prepares a name for similarity comparison: lowercase,
// punctuation stripped, whitespace collapsed.
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits a normalized name into comparison tokens.
func Tokenize(s string) []string {
	return strings.Fields(NormalizeName(s))
}
