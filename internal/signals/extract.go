// Package signals pulls identity signals out of headers and free text.
package signals

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mikey/shortlist-watcher/internal/core"
)

var (
	regCodePattern = regexp.MustCompile(`(?i)\b\d{2}[a-z]{3}\d{4}\b`)
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	namePattern    = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3}\b`)

	notNamePattern = regexp.MustCompile(`(?i)^\d+$|@|\.com|\.org|http|www|\d{10,}`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// RegCodes returns the registration codes in text, upper-cased, in order of first appearance
func RegCodes(text string) []string {
	return unique(regCodePattern.FindAllString(text, -1), strings.ToUpper)
}

// Emails returns the email addresses in text, lower-cased, in order of first appearance
func Emails(text string) []string {
	return unique(emailPattern.FindAllString(text, -1), strings.ToLower)
}

// NameCandidates returns runs of two to four Capitalized words
func NameCandidates(text string) []string {
	return unique(namePattern.FindAllString(text, -1), CollapseSpaces)
}

// ExtractFromText returns every registration code, email and name-like run in text
func ExtractFromText(text, location string) core.Signals {
	var out core.Signals
	for _, v := range RegCodes(text) {
		out = append(out, core.Signal{Kind: core.SignalRegCode, Value: v, Location: location})
	}
	for _, v := range Emails(text) {
		out = append(out, core.Signal{Kind: core.SignalEmail, Value: v, Location: location})
	}
	for _, v := range NameCandidates(text) {
		out = append(out, core.Signal{Kind: core.SignalName, Value: v, Location: location})
	}
	return out
}

// IsLikelyName reports whether a table cell looks like a person's name:
// two to four words, each alphabetic word Capitalized and at least two letters,
// and nothing that looks like a number, address or URL.
func IsLikelyName(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < 3 {
		return false
	}
	if notNamePattern.MatchString(text) {
		return false
	}

	words := strings.Fields(text)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if !isAlpha(w) {
			continue
		}
		if !isCapitalized(w) {
			return false
		}
	}
	return true
}

// CollapseSpaces trims text and replaces every whitespace run with one space
func CollapseSpaces(text string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

func isAlpha(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isCapitalized(word string) bool {
	runes := []rune(word)
	if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func unique(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
