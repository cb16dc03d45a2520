// Package gmail reads the inbox through the Gmail REST API.
package gmail

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Client implements core.MailClient on top of gmail/v1
type Client struct {
	svc    *gmailv1.Service
	user   string
	query  string
	logger *zap.Logger
}

// NewClient creates a Gmail mail client from an authenticated HTTP client.
// Extra options (such as option.WithEndpoint) are passed to the service.
func NewClient(ctx context.Context, httpClient *http.Client, user, query string, logger *zap.Logger, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gmailv1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	if user == "" {
		user = "me"
	}
	return &Client{
		svc:    svc,
		user:   user,
		query:  query,
		logger: logger,
	}, nil
}

// NewestMessageID returns the id of the newest inbox message, or "" for an empty inbox
func (c *Client) NewestMessageID(ctx context.Context) (string, error) {
	ids, err := c.RecentMessageIDs(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// RecentMessageIDs returns up to n message ids, newest first
func (c *Client) RecentMessageIDs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	var ids []string
	pageToken := ""
	for len(ids) < n {
		call := c.svc.Users.Messages.List(c.user).MaxResults(int64(min(n-len(ids), 500))).Context(ctx)
		if c.query != "" {
			call = call.Q(c.query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" || len(resp.Messages) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

// FetchMessage loads headers and the plain text body. Attachments are fetched lazily.
func (c *Client) FetchMessage(ctx context.Context, id string) (*core.Message, error) {
	msg, err := c.svc.Users.Messages.Get(c.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	if msg.Payload == nil {
		return &core.Message{ID: msg.Id}, nil
	}

	out := &core.Message{
		ID:      msg.Id,
		From:    header(msg.Payload.Headers, "From"),
		Subject: header(msg.Payload.Headers, "Subject"),
		Body:    bodyText(msg.Payload),
	}
	if d, err := mail.ParseDate(header(msg.Payload.Headers, "Date")); err == nil {
		out.Date = d
	} else if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate)
	}
	return out, nil
}

// ListAttachments downloads every attachment of a message
func (c *Client) ListAttachments(ctx context.Context, id string) ([]core.AttachmentBlob, error) {
	msg, err := c.svc.Users.Messages.Get(c.user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	parts := attachmentParts(msg.Payload)
	blobs := make([]core.AttachmentBlob, 0, len(parts))
	for _, part := range parts {
		data := part.Body.Data
		if part.Body.AttachmentId != "" {
			att, err := c.svc.Users.Messages.Attachments.Get(c.user, id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("get attachment %s: %w", part.Filename, err)
			}
			data = att.Data
		}
		blobs = append(blobs, core.AttachmentBlob{
			Filename: part.Filename,
			MIMEType: part.MimeType,
			Data:     decodeBase64URLBytes(data),
		})
	}

	c.logger.Debug("Listed attachments", zap.String("message_id", id), zap.Int("count", len(blobs)))
	return blobs, nil
}
