// Package similarity scores lexical agreement between model responses.
package similarity

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text, strips punctuation, splits on whitespace and
// discards tokens of length <= 2. Duplicates collapse: the result is a set.
func Tokenize(text string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, text)

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 2 {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// Jaccard returns |intersection| / |union| of the two texts' token sets.
// Two empty token sets are in full agreement.
func Jaccard(a, b string) float64 {
	setA := Tokenize(a)
	setB := Tokenize(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// RoundScore is the arithmetic mean of Jaccard similarity over every
// unordered pair of responses. A single response trivially scores 1.0.
func RoundScore(responses []string) float64 {
	if len(responses) < 2 {
		return 1.0
	}

	var sum float64
	pairs := 0
	for i := 0; i < len(responses); i++ {
		for j := i + 1; j < len(responses); j++ {
			sum += Jaccard(responses[i], responses[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// MostRepresentative returns the index of the response with the highest
// average similarity to all others. Ties break to the earliest index.
func MostRepresentative(responses []string) int {
	if len(responses) == 0 {
		return -1
	}
	if len(responses) == 1 {
		return 0
	}

	best := 0
	bestScore := -1.0
	for i := range responses {
		var sum float64
		for j := range responses {
			if i == j {
				continue
			}
			sum += Jaccard(responses[i], responses[j])
		}
		avg := sum / float64(len(responses)-1)
		if avg > bestScore {
			best = i
			bestScore = avg
		}
	}
	return best
}
