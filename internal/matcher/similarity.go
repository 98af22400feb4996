package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two composite keys.
//
// Implementations must return a value in [0,1], return 1 for identical inputs,
// and be symmetric. Two empty inputs are identical and score 1: records that
// are missing every match field therefore look like perfect matches to each
// other. Callers that reconcile sparse data should keep that in mind.
type Similarity interface {
	Score(a, b string) float64
}

// SimilarityFunc adapts an ordinary function to the Similarity interface
type SimilarityFunc func(a, b string) float64

// Score calls f(a, b)
func (f SimilarityFunc) Score(a, b string) float64 {
	return f(a, b)
}

// Algorithm names accepted by NewSimilarity
const (
	AlgorithmDice        = "dice"
	AlgorithmLevenshtein = "levenshtein"
)

var similarityRegistry = map[string]func() Similarity{
	AlgorithmDice:        func() Similarity { return DiceSimilarity{} },
	AlgorithmLevenshtein: func() Similarity { return LevenshteinSimilarity{} },
}

// NewSimilarity returns the similarity strategy registered under name
func NewSimilarity(name string) (Similarity, error) {
	factory, ok := similarityRegistry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown similarity algorithm %q (available: %s)",
			name, strings.Join(AvailableAlgorithms(), ", "))
	}
	return factory(), nil
}

// AvailableAlgorithms lists the registered algorithm names in sorted order
func AvailableAlgorithms() []string {
	names := make([]string, 0, len(similarityRegistry))
	for name := range similarityRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DiceSimilarity is the Sørensen–Dice coefficient over character bigrams.
// Whitespace is ignored entirely, and bigrams are counted as a multiset so
// repeated pairs ("aaaa") are only matched as often as they occur on both sides.
// Inputs shorter than two characters that are not identical score 0.
type DiceSimilarity struct{}

// Score implements Similarity
func (DiceSimilarity) Score(a, b string) float64 {
	first := stripWhitespace(a)
	second := stripWhitespace(b)

	if first == second {
		return 1.0
	}

	firstLen := utf8.RuneCountInString(first)
	secondLen := utf8.RuneCountInString(second)
	if firstLen < 2 || secondLen < 2 {
		return 0.0
	}

	bigrams := make(map[string]int, firstLen-1)
	forEachBigram(first, func(bigram string) {
		bigrams[bigram]++
	})

	intersection := 0
	forEachBigram(second, func(bigram string) {
		if bigrams[bigram] > 0 {
			bigrams[bigram]--
			intersection++
		}
	})

	return 2.0 * float64(intersection) / float64(firstLen+secondLen-2)
}

func forEachBigram(s string, fn func(string)) {
	runes := []rune(s)
	for i := 0; i < len(runes)-1; i++ {
		fn(string(runes[i : i+2]))
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// LevenshteinSimilarity converts edit distance into a similarity:
// 1 - distance / length of the longer input, measured in runes.
type LevenshteinSimilarity struct{}

// Score implements Similarity
func (LevenshteinSimilarity) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}

// clampScore keeps scores from custom strategies inside [0,1]
func clampScore(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
