package ledger

import (
	"strings"
	"unicode"

	"pantry-hub/internal/model"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MatchThreshold is the minimum similarity for two names to be treated as
// the same item.
const MatchThreshold = 0.8

// Normalize folds a name for comparison: NFC, lowercase, punctuation removed
// and whitespace collapsed.
func Normalize(name string) string {
	s := norm.NFC.String(name)
	s = cases.Lower(language.Und).String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Similarity scores two normalized names in [0, 1]. When one contains the
// other the score is the length ratio; otherwise it is the share of
// characters they have in common relative to the longer name.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	shorter, longer := len(ra), len(rb)
	if shorter > longer {
		shorter, longer = longer, shorter
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return float64(shorter) / float64(longer)
	}

	counts := make(map[rune]int, len(ra))
	for _, r := range ra {
		counts[r]++
	}
	shared := 0
	for _, r := range rb {
		if counts[r] > 0 {
			shared++
			counts[r]--
		}
	}
	return float64(shared) / float64(longer)
}

// Matcher picks an existing item for a requested name.
type Matcher struct {
	Threshold  float64
	Similarity func(a, b string) float64
}

// DefaultMatcher uses Similarity with MatchThreshold.
var DefaultMatcher = Matcher{Threshold: MatchThreshold, Similarity: Similarity}

// Find returns the index of the candidate matching name, or -1. An exact
// normalized match wins; otherwise the first candidate at or above the
// threshold is taken, so candidates should be ordered oldest first.
func (m Matcher) Find(name string, candidates []model.FoodItem) int {
	target := Normalize(name)
	if target == "" {
		return -1
	}

	for i := range candidates {
		if candidateName(&candidates[i]) == target {
			return i
		}
	}
	for i := range candidates {
		if m.Similarity(target, candidateName(&candidates[i])) >= m.Threshold {
			return i
		}
	}
	return -1
}

func candidateName(item *model.FoodItem) string {
	if item.NormalizedName != "" {
		return item.NormalizedName
	}
	return Normalize(item.Name)
}

// Merge folds an incoming find-or-create request into an existing item:
// quantities are added, categories unioned, and price and calories averaged
// where both sides are non-zero.
func Merge(item *model.FoodItem, q model.Quantities, categories []string, price, calories float64) error {
	for _, loc := range model.AllLocations {
		if !isFinite(q.Get(loc)) {
			return model.ErrInvalidQuantity
		}
	}

	for _, loc := range model.AllLocations {
		if v := q.Get(loc); v > 0 {
			item.Quantities.Set(loc, item.Quantities.Get(loc)+v)
		}
	}
	item.Category = UnionCategories(item.Category, categories)
	item.Price = averageNonZero(item.Price, price)
	item.Calories = averageNonZero(item.Calories, calories)
	Recompute(item)
	return nil
}

// UnionCategories merges two tag lists, dropping blanks and duplicates.
func UnionCategories(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, c := range append(append([]string{}, existing...), incoming...) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func averageNonZero(a, b float64) float64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	default:
		return (a + b) / 2
	}
}
