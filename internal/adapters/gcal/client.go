// Package gcal creates interview events on Google Calendar.
package gcal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/eventinfo"
	"go.uber.org/zap"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	defaultSummary = "Shortlisted Event"
	mailLinkFormat = "https://mail.google.com/mail/u/0/#inbox/%s"
)

// Client implements core.CalendarClient
type Client struct {
	svc        *calendar.Service
	calendarID string
	duration   time.Duration
	extractor  *eventinfo.Extractor
	logger     *zap.Logger
}

// NewClient creates a calendar client from an authenticated HTTP client
func NewClient(
	ctx context.Context,
	httpClient *http.Client,
	calendarID string,
	duration time.Duration,
	extractor *eventinfo.Extractor,
	logger *zap.Logger,
	opts ...option.ClientOption,
) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if duration <= 0 {
		duration = time.Hour
	}
	return &Client{
		svc:        svc,
		calendarID: calendarID,
		duration:   duration,
		extractor:  extractor,
		logger:     logger,
	}, nil
}

// CreateEvent inserts an event when a start time can be found in the body.
// It reports false without error when there is nothing to schedule.
func (c *Client) CreateEvent(ctx context.Context, subject, body, messageID string) (bool, error) {
	details := c.extractor.Extract(ctx, body)
	if details.Start == nil {
		c.logger.Info("No date/time found in email; skipping calendar event", zap.String("message_id", messageID))
		return false, nil
	}

	event := buildEvent(subject, messageID, details, c.duration, c.extractor.Location())
	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("insert calendar event: %w", err)
	}

	c.logger.Info("Created calendar event",
		zap.String("message_id", messageID),
		zap.String("event_id", created.Id),
		zap.Time("start", *details.Start))
	return true, nil
}

func buildEvent(subject, messageID string, details core.EventDetails, duration time.Duration, loc *time.Location) *calendar.Event {
	start := details.Start.In(loc)
	end := start.Add(duration)

	lines := []string{fmt.Sprintf("Original mail: "+mailLinkFormat, messageID)}
	if details.Link != "" {
		lines = append(lines, "Join link: "+details.Link)
	}

	summary := strings.TrimSpace(subject)
	if summary == "" {
		summary = defaultSummary
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: strings.Join(lines, "\n"),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()},
	}
	switch {
	case details.Location != "":
		event.Location = details.Location
	case details.Link != "":
		event.Location = details.Link
	}
	return event
}
