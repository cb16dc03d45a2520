// Package smtpnotify emails a short summary of each match.
package smtpnotify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
)

// Notifier implements core.Notifier over SMTP submission
type Notifier struct {
	addr     string
	username string
	password string
	from     string
	to       []string
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotifier creates an SMTP notifier. An empty username disables AUTH.
func NewNotifier(addr, username, password, from string, to []string, logger *zap.Logger) (*Notifier, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one notification recipient is required")
	}
	if from == "" {
		from = username
	}
	return &Notifier{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		to:       to,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Notify sends one message describing the match
func (n *Notifier) Notify(ctx context.Context, note core.Notification) error {
	data, err := n.buildMessage(note)
	if err != nil {
		return err
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	deadline := time.Now().Add(30 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		host, _, _ := net.SplitHostPort(n.addr)
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if n.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", n.username, n.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(n.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			n.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", rcpt),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// already delivered
		n.logger.Warn("QUIT command failed", zap.Error(err))
	}

	n.logger.Info("Sent match notification",
		zap.String("message_id", note.MessageID),
		zap.String("verdict", note.Verdict.String()))
	return nil
}

func (n *Notifier) buildMessage(note core.Notification) ([]byte, error) {
	var h mail.Header
	h.SetDate(n.now())
	h.SetAddressList("From", []*mail.Address{{Name: "Shortlist Watcher", Address: n.from}})
	to := make([]*mail.Address, 0, len(n.to))
	for _, addr := range n.to {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	h.SetSubject(fmt.Sprintf("[%s] %s", note.Verdict, note.Subject))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if _, err := w.Write([]byte(notificationBody(note))); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func notificationBody(note core.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s\n", note.Verdict)
	fmt.Fprintf(&b, "Subject: %s\n", note.Subject)
	from := note.Sender.Address
	if note.Sender.DisplayName != "" {
		from = fmt.Sprintf("%s <%s>", note.Sender.DisplayName, note.Sender.Address)
	}
	fmt.Fprintf(&b, "From: %s\n", from)
	if note.Sender.Name != "" || note.Sender.RegCode != "" {
		fmt.Fprintf(&b, "Parsed sender: %s %s\n", note.Sender.Name, note.Sender.RegCode)
	}
	fmt.Fprintf(&b, "Open: https://mail.google.com/mail/u/0/#inbox/%s\n", note.MessageID)
	if note.Preview != "" {
		b.WriteString("\n")
		b.WriteString(note.Preview)
		b.WriteString("\n")
	}
	return b.String()
}
