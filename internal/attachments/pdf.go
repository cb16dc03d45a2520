package attachments

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the plain text of every page
type PDFParser struct{}

func (p *PDFParser) Name() string { return "pdf" }

func (p *PDFParser) Supports(filename, mimeType string) bool {
	return hasExt(filename, ".pdf") || mimeContains(mimeType, "pdf")
}

// Parse recovers from panics in the pdf reader, which it raises on some malformed files
func (p *PDFParser) Parse(data []byte) (content *Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			content, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("failed to read pdf text: %w", err)
	}
	return &Content{Text: buf.String()}, nil
}
