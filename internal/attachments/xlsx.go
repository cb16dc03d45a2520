package attachments

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXParser reads every sheet of an Excel workbook
type XLSXParser struct{}

func (p *XLSXParser) Name() string { return "xlsx" }

func (p *XLSXParser) Supports(filename, mimeType string) bool {
	return hasExt(filename, ".xlsx", ".xls") || mimeContains(mimeType, "spreadsheet", "excel")
}

func (p *XLSXParser) Parse(data []byte) (*Content, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	content := &Content{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		content.Tables = append(content.Tables, splitHeader(sheet, rows))
	}
	return content, nil
}
