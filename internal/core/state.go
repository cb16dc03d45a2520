package core

import "time"

// DefaultRetention is the per-category cap on stored match records
const DefaultRetention = 100

// MatchRecord is the persisted summary of one matched message
type MatchRecord struct {
	MessageID       string    `json:"message_id"`
	Timestamp       time.Time `json:"timestamp"`
	FromDisplayName string    `json:"from_display_name"`
	FromEmail       string    `json:"from_email"`
	ParsedName      string    `json:"parsed_name"`
	ParsedReg       string    `json:"parsed_reg"`
	Subject         string    `json:"subject"`
}

// ProcessingState is the watermark plus the accumulated match history
type ProcessingState struct {
	LastMessageID    string        `json:"last_message_id"`
	ConfirmedMatches []MatchRecord `json:"confirmed_matches"`
	Possibilities    []MatchRecord `json:"possibilities"`
	PartialMatches   []MatchRecord `json:"partial_matches"`
}

// NewProcessingState returns an empty state with non-nil category lists
func NewProcessingState() ProcessingState {
	return ProcessingState{
		ConfirmedMatches: []MatchRecord{},
		Possibilities:    []MatchRecord{},
		PartialMatches:   []MatchRecord{},
	}
}

// Normalize replaces nil category lists with empty ones
func (s *ProcessingState) Normalize() {
	if s.ConfirmedMatches == nil {
		s.ConfirmedMatches = []MatchRecord{}
	}
	if s.Possibilities == nil {
		s.Possibilities = []MatchRecord{}
	}
	if s.PartialMatches == nil {
		s.PartialMatches = []MatchRecord{}
	}
}

// HasWatermark reports whether any message has been processed yet
func (s ProcessingState) HasWatermark() bool {
	return s.LastMessageID != ""
}

// category returns the list a verdict is stored under, or nil for NoMatch
func (s *ProcessingState) category(v Verdict) *[]MatchRecord {
	switch v {
	case ConfirmedMatch:
		return &s.ConfirmedMatches
	case Possibility:
		return &s.Possibilities
	case PartialMatch:
		return &s.PartialMatches
	default:
		return nil
	}
}

// Records returns the stored records for a verdict
func (s ProcessingState) Records(v Verdict) []MatchRecord {
	if list := s.category(v); list != nil {
		return *list
	}
	return nil
}

// HasRecord reports whether a message already has a record in any category
func (s ProcessingState) HasRecord(messageID string) bool {
	for _, list := range [][]MatchRecord{s.ConfirmedMatches, s.Possibilities, s.PartialMatches} {
		for _, r := range list {
			if r.MessageID == messageID {
				return true
			}
		}
	}
	return false
}

// Apply appends the record under its verdict and trims every category to
// the newest limit entries. It is a no-op for NoMatch and for messages that
// already have a record. It reports whether the record was stored.
func (s *ProcessingState) Apply(record MatchRecord, v Verdict, limit int) bool {
	if limit <= 0 {
		limit = DefaultRetention
	}
	s.Normalize()

	applied := false
	if list := s.category(v); list != nil && !s.HasRecord(record.MessageID) {
		*list = append(*list, record)
		applied = true
	}

	for _, list := range []*[]MatchRecord{&s.ConfirmedMatches, &s.Possibilities, &s.PartialMatches} {
		if n := len(*list); n > limit {
			trimmed := make([]MatchRecord, limit)
			copy(trimmed, (*list)[n-limit:])
			*list = trimmed
		}
	}
	return applied
}

// Counts returns the number of stored records per verdict
func (s ProcessingState) Counts() map[Verdict]int {
	return map[Verdict]int{
		ConfirmedMatch: len(s.ConfirmedMatches),
		Possibility:    len(s.Possibilities),
		PartialMatch:   len(s.PartialMatches),
	}
}
