package attachments

import (
	"context"
	"testing"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var krish = core.Profile{Name: "Krish Verma", RegistrationNumber: "22BCE2382", PrimaryEmail: "krish@example.com"}

func newScanner() *Scanner {
	return NewScanner(match.NewClassifier(true, 0.8), zap.NewNop())
}

func TestScanTablesRowExample(t *testing.T) {
	table := Table{
		Name:   "csv",
		Header: []string{"Name", "Reg", "Email"},
		Rows: [][]string{
			{"Krish Verma", "22BCE2382", "other@x.com"},
			{"Priya Sharma", "21CSE1234", "priya@x.com"},
		},
	}

	res := newScanner().ScanTables(krish, []Table{table})

	require.Len(t, res.Confirmed, 1)
	assert.Empty(t, res.Possibilities)
	assert.Empty(t, res.Partial)
	assert.Equal(t, core.ConfirmedMatch, res.Verdict())

	row := res.Confirmed[0]
	assert.Equal(t, 0, row.Row)
	assert.Equal(t, "Krish Verma", row.Cells["Name"])
	assert.ElementsMatch(t, []core.CellHit{
		{Column: "Name", Kind: core.SignalName, Value: "Krish Verma"},
		{Column: "Reg", Kind: core.SignalRegCode, Value: "22BCE2382"},
	}, row.Hits)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 6, res.Summary.CellsScanned)
	assert.Equal(t, []string{"21CSE1234", "22BCE2382"}, res.RegCodes)
	assert.Equal(t, []string{"krish verma", "priya sharma"}, res.Names)
}

func TestScanTablesRowsLandInOneCategory(t *testing.T) {
	table := Table{
		Header: []string{"A", "B"},
		Rows: [][]string{
			{"Krish Kumar Verma", ""},
			{"22bce2382", "someone else"},
			{"krish@example.com", "Krish Verma"},
			{"", ""},
		},
	}

	res := newScanner().ScanTables(krish, []Table{table})

	require.Len(t, res.Possibilities, 1)
	assert.Equal(t, 0, res.Possibilities[0].Row)
	require.Len(t, res.Partial, 1)
	assert.Equal(t, 1, res.Partial[0].Row)
	require.Len(t, res.Confirmed, 1)
	assert.Equal(t, 2, res.Confirmed[0].Row)
}

func TestScanDocument(t *testing.T) {
	s := newScanner()

	doc := s.ScanDocument(krish, "Shortlisted students\nName: Krish Verma\nRegister Number 22BCE2382\n")
	assert.Equal(t, core.ConfirmedMatch, doc.Verdict)
	assert.Contains(t, doc.MatchingNames, "Krish Verma")
	assert.True(t, doc.MatchingReg)

	doc = s.ScanDocument(krish, "Dear students, the list for krish and later verma is below")
	assert.Equal(t, core.Possibility, doc.Verdict)
	assert.True(t, doc.NameInText)

	doc = s.ScanDocument(krish, "22BCE2382 only")
	assert.Equal(t, core.PartialMatch, doc.Verdict)

	doc = s.ScanDocument(krish, "")
	assert.Equal(t, core.NoMatch, doc.Verdict)
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"S.No", "Student", "Register No"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, "Priya Sharma", "21CSE1234"}))
	_, err := f.NewSheet("Round 2")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Round 2", "A1", &[]interface{}{"Candidate", "Reg"}))
	require.NoError(t, f.SetSheetRow("Round 2", "A2", &[]interface{}{"Krish Verma", "22BCE2382"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestScanAggregatesAndIsolatesFailures(t *testing.T) {
	blobs := []core.AttachmentBlob{
		{Filename: "broken.pdf", MIMEType: "application/pdf", Data: []byte("definitely not a pdf")},
		{Filename: "shortlist.csv", MIMEType: "text/csv", Data: []byte("Name,Reg\nSomeone Else,22BCE2382\n")},
		{Filename: "offer.docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("x")},
		{Filename: "results.xlsx", MIMEType: "application/octet-stream", Data: workbook(t)},
		{Filename: "notes.txt", MIMEType: "text/plain", Data: []byte("nothing relevant")},
	}

	report := newScanner().Scan(context.Background(), krish, blobs)

	assert.Equal(t, 5, report.TotalAttachments)
	assert.Equal(t, 3, report.ParsedAttachments)
	assert.Equal(t, 1, report.Summary.Errors)
	assert.Equal(t, 1, report.Summary.Unsupported)
	assert.Equal(t, 1, report.Summary.Confirmed)
	assert.Equal(t, 1, report.Summary.Partial)
	assert.Equal(t, core.ConfirmedMatch, report.Overall)

	require.Len(t, report.Results, 5)
	assert.Equal(t, core.StatusError, report.Results[0].Status)
	assert.NotEmpty(t, report.Results[0].Error)
	assert.Equal(t, core.StatusUnsupported, report.Results[2].Status)
	assert.Equal(t, core.ParserNone, report.Results[2].Parser)

	xlsx := report.Results[3]
	assert.Equal(t, core.ParserTable, xlsx.Parser)
	assert.Equal(t, []string{"Sheet1", "Round 2"}, xlsx.Table.Sheets)
	assert.Equal(t, 4, xlsx.Table.TotalRows)

	assert.Equal(t, core.ParserDocument, report.Results[4].Parser)
	assert.Equal(t, core.NoMatch, report.Results[4].Verdict)
}

func TestScanHeaderlessCSV(t *testing.T) {
	res := newScanner().ScanBlob(krish, core.AttachmentBlob{
		Filename: "list.csv",
		Data:     []byte("Krish Verma,22BCE2382\nJohn Doe,21CSE1234\n"),
	})

	require.Equal(t, core.StatusParsed, res.Status)
	assert.Equal(t, core.ConfirmedMatch, res.Verdict)
	assert.Equal(t, 2, res.Table.TotalRows)
	require.Len(t, res.Table.Confirmed, 1)
	assert.Equal(t, 0, res.Table.Confirmed[0].Row)
	assert.Equal(t, "22BCE2382", res.Table.Confirmed[0].Cells["22BCE2382"])
}

func TestScanHeaderRowAddsNoMatches(t *testing.T) {
	res := newScanner().ScanBlob(krish, core.AttachmentBlob{
		Filename: "list.csv",
		Data:     []byte("Name,Reg_Number,Email\nPriya Sharma,21CSE1234,priya@x.com\n"),
	})

	assert.Equal(t, core.NoMatch, res.Verdict)
	assert.Equal(t, 2, res.Table.TotalRows)
	assert.Equal(t, []string{"priya sharma"}, res.Table.Names)
}

func TestScanUnsupportedOnlyIsNoMatch(t *testing.T) {
	report := newScanner().Scan(context.Background(), krish, []core.AttachmentBlob{
		{Filename: "photo.png", MIMEType: "image/png", Data: []byte{0x89}},
	})
	assert.Equal(t, core.NoMatch, report.Overall)
	assert.Equal(t, 0, report.ParsedAttachments)
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newScanner().Scan(ctx, krish, []core.AttachmentBlob{{Filename: "a.csv", Data: []byte("a\n")}})
	assert.Equal(t, 0, report.TotalAttachments)
	assert.Equal(t, core.NoMatch, report.Overall)
}

type panickingParser struct{}

func (panickingParser) Name() string                   { return "boom" }
func (panickingParser) Supports(string, string) bool   { return true }
func (panickingParser) Parse([]byte) (*Content, error) { panic("boom") }

func TestScanBlobRecoversParserPanic(t *testing.T) {
	s := NewScanner(match.NewClassifier(true, 0.8), zap.NewNop(), panickingParser{})
	res := s.ScanBlob(krish, core.AttachmentBlob{Filename: "x.bin"})

	assert.Equal(t, core.StatusError, res.Status)
	assert.Contains(t, res.Error, "boom")
}

func TestParserSelection(t *testing.T) {
	tests := []struct {
		filename, mime, want string
	}{
		{"a.CSV", "", "csv"},
		{"export", "text/csv", "csv"},
		{"a.xls", "", "xlsx"},
		{"file", "application/vnd.ms-excel", "xlsx"},
		{"file", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
		{"letter.pdf", "", "pdf"},
		{"notes.txt", "", "text"},
		{"image.png", "image/png", ""},
	}
	s := newScanner()
	for _, tt := range tests {
		p := s.parserFor(tt.filename, tt.mime)
		if tt.want == "" {
			assert.Nil(t, p, tt.filename)
			continue
		}
		require.NotNil(t, p, tt.filename)
		assert.Equal(t, tt.want, p.Name(), tt.filename)
	}
}
