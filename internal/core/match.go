package core

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxCategoryDistance bounds how many typos MatchCategory forgives.
const maxCategoryDistance = 2

// MatchCategory resolves free text to a category. An exact (case-insensitive)
// name wins; otherwise the closest name within maxCategoryDistance edits is
// returned. Equal distances resolve to the earlier category. Without a match
// the result is Other and false.
func MatchCategory(input string) (Category, bool) {
	if c, err := ParseCategory(input); err == nil {
		return c, true
	}
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return Other, false
	}

	best, bestDist := Category(0), maxCategoryDistance+1
	for _, c := range Categories() {
		d := levenshtein.ComputeDistance(in, strings.ToLower(c.String()))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	if !best.Valid() {
		return Other, false
	}
	return best, true
}
