package diag

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a symptom phrase and strips combining marks so that
// "ruído" and "RUIDO" compare equal. Whitespace and punctuation are left
// untouched; tokenization, where needed, splits on whitespace runs.
func Normalize(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

// tokenize splits an already-normalized phrase into words.
func tokenize(s string) []string {
	return strings.Fields(s)
}
