package eventinfo

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/utils"
)

// SystemPrompt is sent as the system role where a provider supports one
const SystemPrompt = "You extract interview scheduling details from emails. Respond only with JSON."

const promptFormat = `Extract the interview or test schedule from the email below.
Respond with a JSON object containing:
- start: string (RFC 3339 date-time of the event start, or "" if not stated)
- location: string (venue or "Online", or "" if not stated)
- link: string (meeting URL, or "" if none)

Email:
%s

Respond only with the JSON object and nothing else.`

type llmEvent struct {
	Start    string `json:"start"`
	Location string `json:"location"`
	Link     string `json:"link"`
}

// Prompt builds the extraction prompt for already truncated email text
func Prompt(text string) string {
	return fmt.Sprintf(promptFormat, text)
}

// ParseResponse decodes a model response into event details. A start time
// without an offset is read in loc.
func ParseResponse(text string, loc *time.Location) (*core.EventDetails, error) {
	var ev llmEvent
	if err := utils.DecodeJSONObject(text, &ev); err != nil {
		return nil, err
	}

	details := &core.EventDetails{
		Location: strings.TrimSpace(ev.Location),
		Link:     strings.TrimSpace(ev.Link),
	}
	if s := strings.TrimSpace(ev.Start); s != "" {
		start, err := time.Parse(time.RFC3339, s)
		if err != nil {
			start, err = time.ParseInLocation("2006-01-02T15:04:05", s, loc)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid start time %q: %w", s, err)
		}
		details.Start = &start
	}
	return details, nil
}
