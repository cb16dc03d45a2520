package core

import (
	"context"
	"time"
)

// MailClient reads messages from the watched inbox
type MailClient interface {
	// NewestMessageID returns the id of the newest inbound message, or "" when the inbox is empty
	NewestMessageID(ctx context.Context) (string, error)

	// RecentMessageIDs returns up to n message ids, newest first
	RecentMessageIDs(ctx context.Context, n int) ([]string, error)

	// FetchMessage returns headers, plain-text body and, when cheap, attachments
	FetchMessage(ctx context.Context, id string) (*Message, error)

	// ListAttachments returns the raw attachments of a message
	ListAttachments(ctx context.Context, id string) ([]AttachmentBlob, error)
}

// CalendarClient creates events for confirmed matches
type CalendarClient interface {
	// CreateEvent extracts event details from the text and reports whether an event was created
	CreateEvent(ctx context.Context, subject, body, messageID string) (bool, error)
}

// EventExtractor is an opaque fallback that pulls event details out of free text
type EventExtractor interface {
	ExtractEvent(ctx context.Context, text string) (*EventDetails, error)
}

// Notifier delivers a notification about a match
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ProfileStore persists the identity profile
type ProfileStore interface {
	Load() (Profile, error)
	Save(p Profile) error
}

// StateStore persists the processing state
type StateStore interface {
	// Load never fails; missing or corrupt state degrades to an empty one
	Load() ProcessingState

	// Save replaces the persisted state atomically
	Save(s ProcessingState) error
}

// MatchArtifact is the audit copy written for every match
type MatchArtifact struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Profile     Profile           `json:"profile"`
	Email       EmailSummary      `json:"email_data"`
	MatchType   Verdict           `json:"match_type"`
	Attachments *AttachmentReport `json:"attachments,omitempty"`
}

// EmailSummary is the part of a message kept in a MatchArtifact
type EmailSummary struct {
	MessageID       string `json:"message_id"`
	FromDisplayName string `json:"from_display_name"`
	FromEmail       string `json:"from_email"`
	ParsedName      string `json:"parsed_name"`
	ParsedReg       string `json:"parsed_reg"`
	Subject         string `json:"subject"`
	BodyPreview     string `json:"body_preview"`
}

// MatchArchive stores audit artifacts independently of the processing state
type MatchArchive interface {
	// Store persists one artifact
	Store(ctx context.Context, artifact *MatchArtifact) error

	// Recent returns up to limit artifacts, newest first
	Recent(ctx context.Context, limit int) ([]MatchArtifact, error)

	// Cleanup removes artifacts older than the configured retention
	Cleanup(ctx context.Context) error
}
