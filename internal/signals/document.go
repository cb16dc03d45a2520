package signals

import (
	"regexp"
	"strings"
)

var (
	labelledNameLine = regexp.MustCompile(`(?im)\b(?:(?:student|candidate|applicant)[ \t]+name|name|student|candidate|applicant)\b[ \t]*:?[ \t]*([A-Za-z \t]+)`)
	capitalizedLine  = regexp.MustCompile(`(?m)^[ \t]*([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)`)
	nameBeforeReg    = regexp.MustCompile(`(?i)([A-Za-z]+[ \t]+[A-Za-z]+(?:[ \t]+[A-Za-z]+)?)[ \t]+\d{2}[A-Z]{3}\d{4}`)
	nonWord          = regexp.MustCompile(`[^\w\s]`)
)

// DocumentNames applies line-anchored heuristics to document text and
// returns the cleaned, de-duplicated person names it finds.
func DocumentNames(text string) []string {
	var candidates []string
	for _, re := range []*regexp.Regexp{labelledNameLine, capitalizedLine, nameBeforeReg} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := cleanName(m[1]); name != "" {
				candidates = append(candidates, name)
			}
		}
	}
	return unique(candidates, func(s string) string { return s })
}

// cleanName keeps alphabetic words, Title-cases them and accepts 2 to 4
// words of at least two letters.
func cleanName(raw string) string {
	raw = nonWord.ReplaceAllString(CollapseSpaces(raw), " ")

	var words []string
	for _, w := range strings.Fields(raw) {
		if !isAlpha(w) {
			continue
		}
		words = append(words, titleCase(w))
	}
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	for _, w := range words {
		if len([]rune(w)) < 2 {
			return ""
		}
	}
	return strings.Join(words, " ")
}

func titleCase(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return word
	}
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
