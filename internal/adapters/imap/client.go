// Package imap reads the inbox from an IMAP server. Message ids are UIDs.
package imap

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/mailparse"
	"go.uber.org/zap"
)

// Client implements core.MailClient over IMAP
type Client struct {
	address  string
	username string
	password string
	mailbox  string
	tls      bool
	logger   *zap.Logger
}

// NewClient creates an IMAP mail client. No connection is made until first use.
func NewClient(address, username, password, mailbox string, tls bool, logger *zap.Logger) *Client {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &Client{
		address:  address,
		username: username,
		password: password,
		mailbox:  mailbox,
		tls:      tls,
		logger:   logger,
	}
}

// connect dials, authenticates and selects the mailbox. The caller must log out.
func (c *Client) connect(ctx context.Context) (*imapclient.Client, error) {
	var client *imapclient.Client
	var err error
	if c.tls {
		client, err = imapclient.DialTLS(c.address, nil)
	} else {
		client, err = imapclient.DialStartTLS(c.address, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", c.address, err)
	}

	// imapclient commands take no context; abort the handshake on cancel
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("authentication failed for %s: %w", c.username, err)
	}
	if _, err := client.Select(c.mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", c.mailbox, err)
	}
	return client, nil
}

func (c *Client) allUIDs(client *imapclient.Client) ([]imap.UID, error) {
	data, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	uids := data.AllUIDs()
	slices.Sort(uids)
	return uids, nil
}

// NewestMessageID returns the highest UID, or "" when the mailbox is empty
func (c *Client) NewestMessageID(ctx context.Context) (string, error) {
	ids, err := c.RecentMessageIDs(ctx, 1)
	if err != nil || len(ids) == 0 {
		return "", err
	}
	return ids[0], nil
}

// RecentMessageIDs returns up to n UIDs, newest first
func (c *Client) RecentMessageIDs(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	uids, err := c.allUIDs(client)
	if err != nil {
		return nil, err
	}
	return newestFirst(uids, n), nil
}

// FetchMessage downloads and parses the full message, attachments included
func (c *Client) FetchMessage(ctx context.Context, id string) (*core.Message, error) {
	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}

	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}
	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}

	parsed, err := mailparse.ParseBytes(id, raw)
	if err != nil {
		return nil, err
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("closing fetch: %w", err)
	}

	c.logger.Debug("Fetched IMAP message",
		zap.String("message_id", id),
		zap.Int("attachments", len(parsed.Attachments)))
	return parsed, nil
}

// ListAttachments re-fetches the message and returns its attachments
func (c *Client) ListAttachments(ctx context.Context, id string) ([]core.AttachmentBlob, error) {
	msg, err := c.FetchMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return msg.Attachments, nil
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid IMAP message id %q", id)
	}
	return imap.UID(n), nil
}

// newestFirst returns the last n of ascending uids in descending order
func newestFirst(uids []imap.UID, n int) []string {
	if len(uids) > n {
		uids = uids[len(uids)-n:]
	}
	out := make([]string, 0, len(uids))
	for i := len(uids) - 1; i >= 0; i-- {
		out = append(out, strconv.FormatUint(uint64(uids[i]), 10))
	}
	return out
}
