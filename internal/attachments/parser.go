// Package attachments scans tabular and document attachments for the tracked profile.
package attachments

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Table is one sheet of row/column data. Header labels the columns from the
// first record; Rows holds every record, the first included, since the
// schema is unknown and a sheet may have no header at all.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Content is what a parser extracted from an attachment
type Content struct {
	Tables []Table
	Text   string
}

// Parser turns attachment bytes into tables or document text
type Parser interface {
	// Name identifies the parser in logs
	Name() string

	// Supports reports whether the parser handles the file
	Supports(filename, mimeType string) bool

	// Parse extracts the content. Tabular parsers fill Tables, document parsers fill Text.
	Parse(data []byte) (*Content, error)
}

// DefaultParsers returns the csv, xlsx, pdf and plain-text parsers in match order
func DefaultParsers() []Parser {
	return []Parser{
		&CSVParser{},
		&XLSXParser{},
		&PDFParser{},
		&TextParser{},
	}
}

func hasExt(filename string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func mimeContains(mimeType string, parts ...string) bool {
	mimeType = strings.ToLower(mimeType)
	for _, p := range parts {
		if strings.Contains(mimeType, p) {
			return true
		}
	}
	return false
}

// splitHeader labels columns from the first record, naming blank or missing
// columns by position. The first record stays a scannable row.
func splitHeader(name string, records [][]string) Table {
	t := Table{Name: name}
	if len(records) == 0 {
		return t
	}
	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	t.Header = make([]string, width)
	for i := range t.Header {
		if i < len(records[0]) && strings.TrimSpace(records[0][i]) != "" {
			t.Header[i] = strings.TrimSpace(records[0][i])
		} else {
			t.Header[i] = fmt.Sprintf("Unnamed: %d", i)
		}
	}
	t.Rows = records
	return t
}
