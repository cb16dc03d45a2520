package attachments

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVParser reads comma separated attachments
type CSVParser struct{}

func (p *CSVParser) Name() string { return "csv" }

func (p *CSVParser) Supports(filename, mimeType string) bool {
	return hasExt(filename, ".csv") || mimeContains(mimeType, "csv")
}

func (p *CSVParser) Parse(data []byte) (*Content, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return &Content{Tables: []Table{splitHeader("csv", records)}}, nil
}
