// Package mailparse turns raw RFC 5322 messages into core.Message values.
package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/utils"
)

// Parse reads a whole message, keeping every attachment in memory. The
// returned Attachments slice is never nil.
func Parse(id string, r io.Reader) (*core.Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	msg := &core.Message{
		ID:          id,
		From:        mr.Header.Get("From"),
		Subject:     mr.Header.Get("Subject"),
		Attachments: []core.AttachmentBlob{},
	}
	if d, err := mr.Header.Date(); err == nil {
		msg.Date = d
	}

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") && textBody == "":
				textBody = string(body)
			case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
				htmlBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			msg.Attachments = append(msg.Attachments, core.AttachmentBlob{
				Filename: filename,
				MIMEType: contentType,
				Data:     body,
			})
		}
	}

	msg.Body = textBody
	if msg.Body == "" {
		msg.Body = utils.StripHTML(htmlBody)
	}
	return msg, nil
}

// ParseBytes is Parse over an in-memory message
func ParseBytes(id string, raw []byte) (*core.Message, error) {
	return Parse(id, bytes.NewReader(raw))
}
