package attachments

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/match"
	"github.com/mikey/shortlist-watcher/internal/signals"
	"go.uber.org/zap"
)

const documentPreviewSize = 500

// Scanner classifies attachments against a profile
type Scanner struct {
	classifier *match.Classifier
	parsers    []Parser
	logger     *zap.Logger
}

// NewScanner creates a scanner. With no parsers given it uses DefaultParsers.
func NewScanner(classifier *match.Classifier, logger *zap.Logger, parsers ...Parser) *Scanner {
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	return &Scanner{
		classifier: classifier,
		parsers:    parsers,
		logger:     logger,
	}
}

// Scan classifies every attachment independently and aggregates the results.
// A failing attachment is recorded as an error and never stops its siblings.
func (s *Scanner) Scan(ctx context.Context, p core.Profile, blobs []core.AttachmentBlob) *core.AttachmentReport {
	report := &core.AttachmentReport{Overall: core.NoMatch}
	for _, blob := range blobs {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Attachment scan interrupted",
				zap.Int("scanned", report.TotalAttachments),
				zap.Int("total", len(blobs)),
				zap.Error(err))
			break
		}

		res := s.ScanBlob(p, blob)
		report.Add(res)

		fields := []zap.Field{
			zap.String("filename", res.Filename),
			zap.String("status", string(res.Status)),
			zap.String("verdict", string(res.Verdict)),
		}
		if res.Error != "" {
			s.logger.Warn("Attachment could not be parsed", append(fields, zap.String("error", res.Error))...)
		} else {
			s.logger.Debug("Scanned attachment", fields...)
		}
	}
	return report
}

// ScanBlob parses and classifies one attachment
func (s *Scanner) ScanBlob(p core.Profile, blob core.AttachmentBlob) (res core.AttachmentResult) {
	res = core.AttachmentResult{
		Filename: blob.Filename,
		MIMEType: blob.MIMEType,
		Size:     len(blob.Data),
		Parser:   core.ParserNone,
	}

	parser := s.parserFor(blob.Filename, blob.MIMEType)
	if parser == nil {
		res.Status = core.StatusUnsupported
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Status = core.StatusError
			res.Verdict = ""
			res.Error = fmt.Sprintf("%s parser panicked: %v", parser.Name(), r)
		}
	}()

	content, err := parser.Parse(blob.Data)
	if err != nil {
		res.Status = core.StatusError
		res.Error = err.Error()
		return res
	}

	res.Status = core.StatusParsed
	if len(content.Tables) > 0 {
		res.Parser = core.ParserTable
		res.Table = s.ScanTables(p, content.Tables)
		res.Verdict = res.Table.Verdict()
	} else {
		res.Parser = core.ParserDocument
		res.Document = s.ScanDocument(p, content.Text)
		res.Verdict = res.Document.Verdict
	}
	return res
}

func (s *Scanner) parserFor(filename, mimeType string) Parser {
	for _, p := range s.parsers {
		if p.Supports(filename, mimeType) {
			return p
		}
	}
	return nil
}

// ScanTables classifies every row of every table without assuming column
// meanings. Totals are summed across tables.
func (s *Scanner) ScanTables(p core.Profile, tables []Table) *core.TableResult {
	result := &core.TableResult{}
	names := make(map[string]struct{})
	regs := make(map[string]struct{})
	emails := make(map[string]struct{})

	for _, t := range tables {
		result.Sheets = append(result.Sheets, t.Name)
		result.TotalRows += len(t.Rows)

		for i, row := range t.Rows {
			var hits []core.CellHit
			cells := make(map[string]string)
			nameHit, idHit := false, false

			for j, raw := range row {
				text := strings.TrimSpace(raw)
				if text == "" {
					continue
				}
				column := columnName(t.Header, j)
				cells[column] = text
				result.Summary.CellsScanned++

				for _, reg := range signals.RegCodes(text) {
					regs[reg] = struct{}{}
					if s.classifier.ProfileRegCode(p, reg) {
						idHit = true
						hits = append(hits, core.CellHit{Column: column, Kind: core.SignalRegCode, Value: reg})
					}
				}
				for _, email := range signals.Emails(text) {
					emails[email] = struct{}{}
					if s.classifier.EmailSignals() && s.classifier.ProfileEmail(p, email) {
						idHit = true
						hits = append(hits, core.CellHit{Column: column, Kind: core.SignalEmail, Value: email})
					}
				}
				if signals.IsLikelyName(text) {
					names[strings.ToLower(text)] = struct{}{}
					if s.classifier.NameMatches(p, text) {
						nameHit = true
						hits = append(hits, core.CellHit{Column: column, Kind: core.SignalName, Value: text})
					}
				}
			}

			rm := core.RowMatch{Sheet: t.Name, Row: i, Cells: cells, Hits: hits}
			switch core.Decide(nameHit, idHit) {
			case core.ConfirmedMatch:
				result.Confirmed = append(result.Confirmed, rm)
			case core.Possibility:
				result.Possibilities = append(result.Possibilities, rm)
			case core.PartialMatch:
				result.Partial = append(result.Partial, rm)
			}
		}
	}

	result.Names = sortedKeys(names)
	result.RegCodes = sortedKeys(regs)
	result.Emails = sortedKeys(emails)
	result.Summary.NamesFound = len(result.Names)
	result.Summary.RegsFound = len(result.RegCodes)
	result.Summary.EmailsFound = len(result.Emails)
	return result
}

// ScanDocument classifies unstructured text once as a whole
func (s *Scanner) ScanDocument(p core.Profile, text string) *core.DocumentResult {
	doc := &core.DocumentResult{
		Names:      signals.DocumentNames(text),
		RegCodes:   signals.RegCodes(text),
		Emails:     signals.Emails(text),
		NameInText: match.ContainsNameInOrder(text, p.Name),
		TextLength: len(text),
		Preview:    preview(text, documentPreviewSize),
	}

	for _, n := range doc.Names {
		if s.classifier.NameMatches(p, n) {
			doc.MatchingNames = append(doc.MatchingNames, n)
		}
	}
	for _, r := range doc.RegCodes {
		if s.classifier.ProfileRegCode(p, r) {
			doc.MatchingReg = true
		}
	}
	if s.classifier.EmailSignals() {
		for _, e := range doc.Emails {
			if s.classifier.ProfileEmail(p, e) {
				doc.MatchingEmails = append(doc.MatchingEmails, e)
			}
		}
	}

	nameMatched := doc.NameInText || len(doc.MatchingNames) > 0
	idMatched := doc.MatchingReg || len(doc.MatchingEmails) > 0
	doc.Verdict = core.Decide(nameMatched, idMatched)
	return doc
}

func columnName(header []string, i int) string {
	if i < len(header) && header[i] != "" {
		return header[i]
	}
	return fmt.Sprintf("Unnamed: %d", i)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
