package trend

import "strings"

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "vs": true, "x": true,
}

// termSet is the set of significant terms extracted from an entity's display
// text, used for cross-platform matching.
type termSet map[string]bool

// significantTerms lowercases text, splits on whitespace, and drops stop
// words and tokens of two characters or fewer.
func significantTerms(text string) termSet {
	terms := make(termSet)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) > 2 && !stopwords[w] {
			terms[w] = true
		}
	}
	return terms
}

// jaccard returns the Jaccard index of two term sets.
func jaccard(a, b termSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for t := range a {
		if b[t] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
