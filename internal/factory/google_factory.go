package factory

import (
	"context"
	"net/http"
	"sync"

	"github.com/mikey/shortlist-watcher/internal/adapters/googleauth"
	"github.com/mikey/shortlist-watcher/internal/config"
	"go.uber.org/zap"
)

// GoogleFactory builds the OAuth HTTP client shared by the Gmail and Calendar adapters
type GoogleFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	once   sync.Once
	client *http.Client
	err    error
}

// NewGoogleFactory creates a new Google client factory
func NewGoogleFactory(cfg *config.Config, logger *zap.Logger) *GoogleFactory {
	return &GoogleFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// HTTPClient returns the authenticated client, creating it on first use
func (f *GoogleFactory) HTTPClient(ctx context.Context) (*http.Client, error) {
	f.once.Do(func() {
		dir := f.cfg.GetString("google.credentials_dir")
		f.client, f.err = googleauth.NewHTTPClient(ctx, dir, f.logger.Named("googleauth"))
	})
	return f.client, f.err
}
