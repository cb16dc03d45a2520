package core

// ParserKind describes how an attachment's content was interpreted
type ParserKind string

const (
	ParserTable    ParserKind = "table"
	ParserDocument ParserKind = "document"
	ParserNone     ParserKind = "none"
)

// AttachmentStatus is the outcome of scanning one attachment
type AttachmentStatus string

const (
	StatusParsed      AttachmentStatus = "parsed"
	StatusUnsupported AttachmentStatus = "unsupported"
	StatusError       AttachmentStatus = "error"
)

// CellHit is one cell that matched a profile field
type CellHit struct {
	Column string     `json:"column"`
	Kind   SignalKind `json:"kind"`
	Value  string     `json:"value"`
}

// RowMatch is a table row classified above NoMatch
type RowMatch struct {
	Sheet string            `json:"sheet,omitempty"`
	Row   int               `json:"row"`
	Cells map[string]string `json:"cells"`
	Hits  []CellHit         `json:"hits"`
}

// TableSummary counts what a table scan looked at
type TableSummary struct {
	CellsScanned int `json:"cells_scanned"`
	NamesFound   int `json:"names_found"`
	RegsFound    int `json:"regs_found"`
	EmailsFound  int `json:"emails_found"`
}

// TableResult is the outcome of scanning row/column data, summed over sheets
type TableResult struct {
	Sheets        []string     `json:"sheets"`
	TotalRows     int          `json:"total_rows"`
	Confirmed     []RowMatch   `json:"confirmed_matches"`
	Possibilities []RowMatch   `json:"possibilities"`
	Partial       []RowMatch   `json:"partial_matches"`
	Names         []string     `json:"all_names"`
	RegCodes      []string     `json:"all_regs"`
	Emails        []string     `json:"all_emails"`
	Summary       TableSummary `json:"summary"`
}

// Verdict returns the strongest category holding at least one row
func (t *TableResult) Verdict() Verdict {
	switch {
	case len(t.Confirmed) > 0:
		return ConfirmedMatch
	case len(t.Possibilities) > 0:
		return Possibility
	case len(t.Partial) > 0:
		return PartialMatch
	default:
		return NoMatch
	}
}

// DocumentResult is the outcome of scanning unstructured text
type DocumentResult struct {
	Verdict        Verdict  `json:"verdict"`
	Names          []string `json:"extracted_names"`
	RegCodes       []string `json:"extracted_regs"`
	Emails         []string `json:"extracted_emails"`
	MatchingNames  []string `json:"matching_names"`
	NameInText     bool     `json:"name_in_text"`
	MatchingReg    bool     `json:"matching_reg"`
	MatchingEmails []string `json:"matching_emails"`
	TextLength     int      `json:"text_length"`
	Preview        string   `json:"text_preview"`
}

// AttachmentResult is the per-attachment entry of an AttachmentReport
type AttachmentResult struct {
	Filename string           `json:"filename"`
	MIMEType string           `json:"mime_type"`
	Size     int              `json:"size"`
	Parser   ParserKind       `json:"parser_used"`
	Status   AttachmentStatus `json:"status"`
	Verdict  Verdict          `json:"verdict,omitempty"`
	Error    string           `json:"error,omitempty"`
	Table    *TableResult     `json:"table,omitempty"`
	Document *DocumentResult  `json:"document,omitempty"`
}

// AttachmentSummary counts attachment outcomes
type AttachmentSummary struct {
	Confirmed     int `json:"confirmed"`
	Possibilities int `json:"possibilities"`
	Partial       int `json:"partial"`
	Errors        int `json:"errors"`
	Unsupported   int `json:"unsupported"`
}

// AttachmentReport aggregates the scan of every attachment of a message
type AttachmentReport struct {
	TotalAttachments  int                `json:"total_attachments"`
	ParsedAttachments int                `json:"parsed_attachments"`
	Results           []AttachmentResult `json:"attachment_results"`
	Summary           AttachmentSummary  `json:"summary"`
	Overall           Verdict            `json:"overall_verdict"`
	// ListError is set when the attachment list itself could not be fetched
	ListError string `json:"list_error,omitempty"`
}

// Add records one attachment result and keeps counts and the overall verdict current
func (r *AttachmentReport) Add(res AttachmentResult) {
	r.TotalAttachments++
	r.Results = append(r.Results, res)

	switch res.Status {
	case StatusUnsupported:
		r.Summary.Unsupported++
	case StatusError:
		r.Summary.Errors++
	case StatusParsed:
		r.ParsedAttachments++
		switch res.Verdict {
		case ConfirmedMatch:
			r.Summary.Confirmed++
		case Possibility:
			r.Summary.Possibilities++
		case PartialMatch:
			r.Summary.Partial++
		}
		r.Overall = Fuse(r.Overall, res.Verdict)
	}
	if r.Overall == "" {
		r.Overall = NoMatch
	}
}
