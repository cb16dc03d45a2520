package match

import (
	"strings"

	"golang.org/x/text/cases"
)

// normalize case-folds text and collapses whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(normalize(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isSubset(a, b map[string]struct{}) bool {
	if len(a) == 0 {
		return false
	}
	for w := range a {
		if _, ok := b[w]; !ok {
			return false
		}
	}
	return true
}

// ContainsNameInOrder reports whether every word of name occurs in text in
// the same left-to-right order. Words need not be adjacent.
func ContainsNameInOrder(text, name string) bool {
	words := strings.Fields(normalize(name))
	if len(words) == 0 {
		return false
	}
	t := normalize(text)

	idx := 0
	for _, w := range words {
		pos := strings.Index(t[idx:], w)
		if pos < 0 {
			return false
		}
		idx += pos + len(w)
	}
	return true
}

// NameMatchesStructured reports whether a parsed display name refers to the
// profile name: exact equality, or every profile word present in the candidate.
func NameMatchesStructured(profileName, candidate string) bool {
	p, c := normalize(profileName), normalize(candidate)
	if p == "" || c == "" {
		return false
	}
	if p == c {
		return true
	}
	return isSubset(wordSet(p), wordSet(c))
}

// NameMatchesFlexible is the lenient comparison used for attachment cells:
// either word set contains the other, or the overlap covers at least
// threshold of the profile's words.
func NameMatchesFlexible(profileName, candidate string, threshold float64) bool {
	p, c := wordSet(profileName), wordSet(candidate)
	if len(p) == 0 || len(c) == 0 {
		return false
	}
	if isSubset(p, c) || isSubset(c, p) {
		return true
	}

	overlap := 0
	for w := range p {
		if _, ok := c[w]; ok {
			overlap++
		}
	}
	return float64(overlap) >= threshold*float64(len(p))
}

// containsFold is a case-insensitive substring test that treats an empty needle as absent
func containsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(cases.Fold().String(haystack), cases.Fold().String(needle))
}
