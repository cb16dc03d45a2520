// Package eventinfo pulls interview date, venue and meeting link out of email text.
package eventinfo

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	dateTimePattern = regexp.MustCompile(`(?i)(\d{1,2}[a-z]{0,2}\s+[a-z]+\s+\d{4}).{0,40}?(\d{1,2}[:.]?\d{0,2}\s*(?:am|pm))`)
	ordinalSuffix   = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)?$`)
	urlPattern      = regexp.MustCompile(`https?://\S+`)

	dateLayouts = []string{"2 January 2006", "2 Jan 2006"}
	timeLayouts = []string{"3:04pm", "3pm", "304pm"}
)

// Place maps a name found in text to the venue written into the event
type Place struct {
	Name        string
	Description string
}

// DefaultHalls are the campus halls recognised by name
func DefaultHalls() []Place {
	return []Place{
		{"Sarojini Naidu", "SJT 6th floor"},
		{"Bhagat Singh", "SJT 8th floor"},
		{"Homi Bhabha", "SJT 4th floor"},
		{"Channa Reddy", "MGR Ground floor"},
		{"Anna Auditorium", "Opposite MGR"},
		{"Kamaraj Auditorium", "TT 8th floor"},
		{"Ambedkar Auditorium", "TT Ground Floor"},
	}
}

// DefaultBlocks are the academic block codes recognised as whole words
func DefaultBlocks() []Place {
	return []Place{
		{"PRP", "Pearl Research Park"},
		{"MGB", "Mahatma Gandhi Block"},
		{"SJT", "Silver Jubilee Tower"},
		{"TT", "Technology Tower"},
		{"SMV", "SMV"},
		{"MGR", "MGR"},
		{"CDMM", "CDMM"},
		{"GDN", "GDN"},
	}
}

// PlacesFromMap converts a configured name to description map into places,
// ordered by name so matching is deterministic
func PlacesFromMap(m map[string]string) []Place {
	out := make([]Place, 0, len(m))
	for name, desc := range m {
		out = append(out, Place{Name: name, Description: desc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Extractor finds event details with fixed patterns and, when those fail to
// find a start time, asks an optional fallback extractor
type Extractor struct {
	loc      *time.Location
	halls    []Place
	blocks   []placePattern
	fallback core.EventExtractor
	limiter  *rate.Limiter
	logger   *zap.Logger
}

type placePattern struct {
	re          *regexp.Regexp
	description string
}

// NewExtractor creates an extractor. fallback and limiter may be nil.
func NewExtractor(
	loc *time.Location,
	halls []Place,
	blocks []Place,
	fallback core.EventExtractor,
	limiter *rate.Limiter,
	logger *zap.Logger,
) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	e := &Extractor{
		loc:      loc,
		halls:    halls,
		fallback: fallback,
		limiter:  limiter,
		logger:   logger,
	}
	for _, b := range blocks {
		e.blocks = append(e.blocks, placePattern{
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(b.Name) + `\b`),
			description: b.Description,
		})
	}
	return e
}

// Location returns the timezone event times are interpreted in
func (e *Extractor) Location() *time.Location {
	return e.loc
}

// Extract returns whatever details can be found. It never fails; fallback
// errors are logged and the pattern results are returned as they are.
func (e *Extractor) Extract(ctx context.Context, text string) core.EventDetails {
	details := e.ExtractPatterns(text)
	if details.Start != nil || e.fallback == nil || strings.TrimSpace(text) == "" {
		return details
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			e.logger.Warn("Skipping event extraction fallback", zap.Error(err))
			return details
		}
	}

	extra, err := e.fallback.ExtractEvent(ctx, text)
	if err != nil {
		e.logger.Warn("Event extraction fallback failed", zap.Error(err))
		return details
	}
	if extra == nil {
		return details
	}
	if extra.Start != nil {
		start := extra.Start.In(e.loc)
		details.Start = &start
	}
	if details.Location == "" {
		details.Location = extra.Location
	}
	if details.Link == "" {
		details.Link = extra.Link
	}
	return details
}

// ExtractPatterns applies only the fixed date, venue and link patterns
func (e *Extractor) ExtractPatterns(text string) core.EventDetails {
	var details core.EventDetails
	if strings.TrimSpace(text) == "" {
		return details
	}

	if m := dateTimePattern.FindStringSubmatch(text); m != nil {
		if start, ok := e.parseDateTime(m[1], m[2]); ok {
			details.Start = &start
		}
	}

	lower := strings.ToLower(text)
	for _, h := range e.halls {
		if strings.Contains(lower, strings.ToLower(h.Name)) {
			details.Location = h.Description
			break
		}
	}
	if details.Location == "" {
		for _, b := range e.blocks {
			if b.re.MatchString(text) {
				details.Location = b.description
				break
			}
		}
	}

	if link := urlPattern.FindString(text); link != "" {
		details.Link = strings.TrimRight(link, ".,;)>")
	}
	return details
}

// parseDateTime reads a day-first date such as "12th March 2025" and a clock
// time such as "10:30 am" or "3 PM"
func (e *Extractor) parseDateTime(datePart, timePart string) (time.Time, bool) {
	fields := strings.Fields(datePart)
	if len(fields) != 3 {
		return time.Time{}, false
	}
	m := ordinalSuffix.FindStringSubmatch(fields[0])
	if m == nil {
		return time.Time{}, false
	}
	dateStr := m[1] + " " + capitalize(fields[1]) + " " + fields[2]

	var date time.Time
	var err error
	for _, layout := range dateLayouts {
		if date, err = time.ParseInLocation(layout, dateStr, e.loc); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false
	}

	clock := strings.ToLower(strings.Join(strings.Fields(timePart), ""))
	clock = strings.Replace(clock, ".", ":", 1)
	var tod time.Time
	for _, layout := range timeLayouts {
		if tod, err = time.Parse(layout, clock); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false
	}

	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, e.loc), true
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
