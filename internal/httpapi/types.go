package httpapi

import (
	"strings"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/logstream"
	"github.com/mikey/shortlist-watcher/internal/pipeline"
)

// HealthResponse is the response body for GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
}

// MessageResponse is the generic success/failure body
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LogsResponse is the response body for GET /api/logs
type LogsResponse struct {
	Success bool              `json:"success"`
	Items   []logstream.Entry `json:"items"`
	Count   int               `json:"count"`
}

// StateStats summarizes the processing state
type StateStats struct {
	ConfirmedCount     int    `json:"confirmed_count"`
	PossibilitiesCount int    `json:"possibilities_count"`
	PartialCount       int    `json:"partial_count"`
	LastMessageID      string `json:"last_message_id"`
}

// StateResponse is the response body for GET /api/state
type StateResponse struct {
	State core.ProcessingState `json:"state"`
	Stats StateStats           `json:"stats"`
}

// MatchesResponse groups stored records by verdict. Artifacts are the
// newest audit copies when an archive is configured.
type MatchesResponse struct {
	Confirmed     []core.MatchRecord   `json:"confirmed"`
	Possibilities []core.MatchRecord   `json:"possibilities"`
	Partial       []core.MatchRecord   `json:"partial"`
	Artifacts     []core.MatchArtifact `json:"artifacts,omitempty"`
}

// ProfileUpdateRequest carries the profile fields to change. Absent fields are left alone.
type ProfileUpdateRequest struct {
	Name               *string `json:"name"`
	RegistrationNumber *string `json:"registration_number"`
	PrimaryEmail       *string `json:"gmail_address"`
	SecondaryEmail     *string `json:"personal_email"`
	DisplayName        *string `json:"gmail_display_name"`
}

func (r ProfileUpdateRequest) apply(p *core.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.Name, r.Name)
	set(&p.RegistrationNumber, r.RegistrationNumber)
	set(&p.PrimaryEmail, r.PrimaryEmail)
	set(&p.SecondaryEmail, r.SecondaryEmail)
	set(&p.DisplayName, r.DisplayName)
}

// ProfileResponse is the response body for POST /api/profile
type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Profile core.Profile `json:"profile"`
}

// CheckResponse is the response body for POST /api/check-email
type CheckResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Result  *pipeline.Result `json:"result,omitempty"`
}

// BackfillRequest is the request body for POST /api/backfill
type BackfillRequest struct {
	Count int `json:"count"`
}

// BackfillResponse is the response body for POST /api/backfill
type BackfillResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
	Count   int    `json:"count"`
}
