package factory

import (
	"context"
	"fmt"

	"github.com/mikey/shortlist-watcher/internal/adapters/gmail"
	"github.com/mikey/shortlist-watcher/internal/adapters/imap"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
)

// MailFactory creates the mailbox client selected by mail.provider
type MailFactory struct {
	cfg    *config.Config
	google *GoogleFactory
	logger *zap.Logger
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, google *GoogleFactory, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		google: google,
		logger: logger,
	}
}

// CreateMailClient creates a Gmail or IMAP client
func (f *MailFactory) CreateMailClient(ctx context.Context) (core.MailClient, error) {
	provider := f.cfg.GetMail().Provider
	f.logger.Info("Creating mail client", zap.String("provider", provider))

	switch provider {
	case "gmail", "":
		httpClient, err := f.google.HTTPClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate with Google: %w", err)
		}
		gmailCfg := f.cfg.GetGmail()
		client, err := gmail.NewClient(ctx, httpClient, gmailCfg.User, gmailCfg.Query, f.logger.Named("gmail"))
		if err != nil {
			return nil, err
		}
		return client, nil
	case "imap":
		imapCfg := f.cfg.GetIMAP()
		if imapCfg.Address == "" || imapCfg.Username == "" {
			return nil, fmt.Errorf("imap address and username are required")
		}
		return imap.NewClient(imapCfg.Address, imapCfg.Username, imapCfg.Password, imapCfg.Mailbox, imapCfg.TLS, f.logger.Named("imap")), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", provider)
	}
}
