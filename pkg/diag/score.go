package diag

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Scoring weights. These are contract, not tuning knobs: the 70/30 split and
// the short-word cutoff are pinned by the engine's tests.
const (
	// symptomWeight is the maximum contribution of symptom-keyword overlap.
	symptomWeight = 70.0
	// textWeight scales the name/description signal when symptom keywords exist.
	textWeight = 0.30
	// minTextWordLen: words this short (articles, prepositions) are ignored
	// when matching against name/description text.
	minTextWordLen = 2
)

// Score computes the 0-100 relevance of a problem for the reported symptoms.
// Inputs are raw text; normalization happens here, once per phrase.
//
// With cataloged symptom keywords, overlap contributes up to 70 points and
// keyword presence in name/description up to 30. Without keywords, the
// name/description signal is the whole score.
func Score(reported []string, p Problem) int {
	if len(reported) == 0 {
		return 0
	}

	text := textMatch(reported, p.Name, p.Description)
	if len(p.Symptoms) == 0 {
		return text
	}

	cataloged := make([]string, len(p.Symptoms))
	for i, s := range p.Symptoms {
		cataloged[i] = Normalize(s)
	}

	matched := 0
	for _, r := range reported {
		if symptomMatches(Normalize(r), cataloged) {
			matched++
		}
	}

	symptomScore := float64(matched) / float64(len(reported)) * symptomWeight
	textScore := float64(text) * textWeight
	return int(math.Round(math.Min(100, symptomScore+textScore)))
}

// symptomMatches reports whether a normalized reported symptom matches any
// cataloged keyword. Containment is bidirectional: "barulho no freio"
// matches a cataloged "freio" and vice versa.
func symptomMatches(reported string, cataloged []string) bool {
	for _, c := range cataloged {
		if strings.Contains(reported, c) || strings.Contains(c, reported) {
			return true
		}
	}
	return false
}

// textMatch scores keyword presence in free text on a 0-100 scale: the share
// of reported symptoms contributing at least one word (longer than
// minTextWordLen) found as a substring of the lowercased concatenated texts.
func textMatch(reported []string, texts ...string) int {
	if len(reported) == 0 {
		return 0
	}

	haystack := strings.ToLower(strings.Join(texts, " "))

	matched := 0
	for _, r := range reported {
		for _, word := range tokenize(Normalize(r)) {
			if utf8.RuneCountInString(word) > minTextWordLen && strings.Contains(haystack, word) {
				matched++
				break
			}
		}
	}

	return int(math.Round(math.Min(100, float64(matched)/float64(len(reported))*100)))
}
