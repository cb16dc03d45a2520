// Package googleauth builds OAuth-authenticated HTTP clients for Google APIs
// from a client_secret.json and a previously authorized token.json.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmailv1 "google.golang.org/api/gmail/v1"
)

const (
	credentialsFile = "client_secret.json"
	tokenFile       = "token.json"
)

// ErrNoToken is returned when token.json has not been created yet
var ErrNoToken = errors.New("no OAuth token found; authorize the account first")

// Scopes are the permissions the watcher needs
var Scopes = []string{
	gmailv1.GmailReadonlyScope,
	calendar.CalendarEventsScope,
}

// NewHTTPClient returns a client whose refreshed tokens are written back to token.json
func NewHTTPClient(ctx context.Context, dir string, logger *zap.Logger) (*http.Client, error) {
	credPath := filepath.Join(dir, credentialsFile)
	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials at %s: %w", credPath, err)
	}

	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}

	tokPath := filepath.Join(dir, tokenFile)
	tok, err := ReadToken(tokPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("read token at %s: %w", tokPath, err)
	}

	src := &persistingSource{
		base:   cfg.TokenSource(ctx, tok),
		path:   tokPath,
		last:   tok.AccessToken,
		logger: logger,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// ReadToken loads a token from disk
func ReadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// SaveToken writes a token atomically with owner-only permissions
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0o600)
}

// persistingSource saves every newly minted access token
type persistingSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	path   string
	last   string
	logger *zap.Logger
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.path, tok); err != nil {
			s.logger.Warn("Failed to persist refreshed OAuth token", zap.Error(err))
		} else {
			s.last = tok.AccessToken
			s.logger.Debug("Persisted refreshed OAuth token", zap.Time("expiry", tok.Expiry))
		}
	}
	return tok, nil
}
