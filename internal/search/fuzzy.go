package search

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultThreshold is the highest score still counted as a match.
const DefaultThreshold = 0.3

// Score rates how well query matches text, case-insensitively.
// 0 is a perfect match, 1 means nothing in common.
//
// The query may match anywhere in text: the score is the edit distance
// of the best approximate occurrence of query inside text divided by the
// query length. The whole-text Levenshtein distance normalized by the
// longer string is also considered; the lower of the two wins.
func Score(query, text string) float64 {
	return scoreFolded(strings.ToLower(strings.TrimSpace(query)), strings.ToLower(text))
}

// scoreFolded expects both arguments already lower-cased
func scoreFolded(query, text string) float64 {
	if query == "" || text == "" {
		return 1
	}
	if strings.Contains(text, query) {
		return 0
	}

	qRunes := []rune(query)
	best := float64(substringDistance(qRunes, []rune(text))) / float64(len(qRunes))

	longest := max(len(qRunes), utf8.RuneCountInString(text))
	if whole := float64(fuzzy.LevenshteinDistance(query, text)) / float64(longest); whole < best {
		best = whole
	}
	return min(best, 1)
}

// substringDistance is the smallest Levenshtein distance between query and
// any substring of text. The first row is all zeros so a match may start
// anywhere; the minimum of the last row lets it end anywhere.
func substringDistance(query, text []rune) int {
	prev := make([]int, len(text)+1)
	cur := make([]int, len(text)+1)

	for i := 1; i <= len(query); i++ {
		cur[0] = i
		for j := 1; j <= len(text); j++ {
			cost := 1
			if query[i-1] == text[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}

	return slices.Min(prev)
}

// tokenize splits text into lowercase word tokens
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchFields scores a folded query against the folded fields of one
// entry. Multi-word queries may also match word by word across fields
// ("maroon sugar" finds Sugar by Maroon 5): every word must match on its
// own and the mean word score is used.
func matchFields(query string, words []string, threshold float64, fields ...string) (float64, bool) {
	best := 1.0
	for _, f := range fields {
		best = min(best, scoreFolded(query, f))
	}

	if len(words) > 1 {
		total := 0.0
		allMatched := true
		for _, w := range words {
			wordBest := 1.0
			for _, f := range fields {
				wordBest = min(wordBest, scoreFolded(w, f))
			}
			if wordBest > threshold {
				allMatched = false
				break
			}
			total += wordBest
		}
		if allMatched {
			best = min(best, total/float64(len(words)))
		}
	}

	return best, best <= threshold
}
