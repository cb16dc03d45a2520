package attachments

import (
	"strings"
	"unicode/utf8"
)

// TextParser treats plain-text attachments as documents
type TextParser struct{}

func (p *TextParser) Name() string { return "text" }

func (p *TextParser) Supports(filename, mimeType string) bool {
	return hasExt(filename, ".txt") || strings.HasPrefix(strings.ToLower(mimeType), "text/plain")
}

func (p *TextParser) Parse(data []byte) (*Content, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	return &Content{Text: text}, nil
}
