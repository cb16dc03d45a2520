package core

import (
	"strings"
	"time"
)

// Profile is the identity the watcher matches messages against
type Profile struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number"`
	PrimaryEmail       string `json:"gmail_address"`
	SecondaryEmail     string `json:"personal_email"`
	DisplayName        string `json:"gmail_display_name,omitempty"`
}

// Emails returns the configured addresses, lower-cased, skipping blanks
func (p Profile) Emails() []string {
	var out []string
	for _, e := range []string{p.PrimaryEmail, p.SecondaryEmail} {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// IsEmpty reports whether no identity field is set
func (p Profile) IsEmpty() bool {
	return strings.TrimSpace(p.Name) == "" &&
		strings.TrimSpace(p.RegistrationNumber) == "" &&
		len(p.Emails()) == 0
}

// Backfill fills an empty name or registration number from a parsed sender;
// a name or number that is already set is never overwritten. DisplayName is
// not write-once: it always tracks the latest sender display name. It reports
// whether anything changed.
func (p *Profile) Backfill(s Sender) bool {
	changed := false
	if strings.TrimSpace(p.Name) == "" && s.Name != "" {
		p.Name = s.Name
		changed = true
	}
	if strings.TrimSpace(p.RegistrationNumber) == "" && s.RegCode != "" {
		p.RegistrationNumber = s.RegCode
		changed = true
	}
	if s.DisplayName != "" && p.DisplayName != s.DisplayName {
		p.DisplayName = s.DisplayName
		changed = true
	}
	return changed
}

// Sender is a parsed From header
type Sender struct {
	// Raw is the header value as received
	Raw string `json:"raw,omitempty"`
	// DisplayName is decoded and stripped of relay decorations
	DisplayName string `json:"display_name"`
	Address     string `json:"address"`
	// Name is DisplayName with any registration code removed
	Name    string `json:"name"`
	RegCode string `json:"reg_code"`
}

// SignalKind identifies what an extracted signal represents
type SignalKind string

const (
	SignalName    SignalKind = "NAME"
	SignalRegCode SignalKind = "REG_CODE"
	SignalEmail   SignalKind = "EMAIL"
)

// Signal is one identity finding inside a scanned unit
type Signal struct {
	Kind     SignalKind `json:"kind"`
	Value    string     `json:"value"`
	Location string     `json:"location,omitempty"`
}

// Signals is the set of findings for a scanned unit
type Signals []Signal

// Values returns the signal values of the given kind in order of discovery
func (s Signals) Values(kind SignalKind) []string {
	var out []string
	for _, sig := range s {
		if sig.Kind == kind {
			out = append(out, sig.Value)
		}
	}
	return out
}

// Message is a fetched inbound email
type Message struct {
	ID      string
	From    string
	Subject string
	Date    time.Time
	Body    string
	// Attachments is nil when the transport fetches them lazily
	Attachments []AttachmentBlob
}

// AttachmentBlob is the raw content of one attachment
type AttachmentBlob struct {
	Filename string
	MIMEType string
	Data     []byte
}

// EventDetails are the structured fields pulled out of an interview notice
type EventDetails struct {
	Start    *time.Time `json:"start,omitempty"`
	Location string     `json:"location,omitempty"`
	Link     string     `json:"link,omitempty"`
}

// Notification is the payload handed to a Notifier after a match
type Notification struct {
	MessageID string
	Verdict   Verdict
	Subject   string
	Sender    Sender
	Preview   string
}
