package factory

import (
	"github.com/mikey/shortlist-watcher/internal/adapters/smtpnotify"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates the match notifier
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier returns nil when notifications are disabled
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyCfg := f.cfg.GetNotify()
	if !notifyCfg.Enabled {
		return nil, nil
	}
	n, err := smtpnotify.NewNotifier(notifyCfg.SMTPAddress, notifyCfg.Username, notifyCfg.Password,
		notifyCfg.From, notifyCfg.To, f.logger.Named("notify"))
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MinVerdict returns the weakest verdict that triggers a notification
func (f *NotifierFactory) MinVerdict() core.Verdict {
	v := core.Verdict(f.cfg.GetNotify().MinVerdict)
	if !v.Valid() {
		f.logger.Warn("Invalid notify.min_verdict, using CONFIRMED_MATCH", zap.String("value", string(v)))
		return core.ConfirmedMatch
	}
	return v
}
