package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
)

// JSONProfileStore keeps the identity profile in a JSON file
type JSONProfileStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONProfileStore creates a profile store backed by path
func NewJSONProfileStore(path string, logger *zap.Logger) *JSONProfileStore {
	return &JSONProfileStore{
		path:   path,
		logger: logger,
	}
}

// Load returns the stored profile. A missing or corrupt file yields an empty
// profile; only unexpected read errors are returned.
func (s *JSONProfileStore) Load() (core.Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.Profile{}, nil
		}
		return core.Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var p core.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("Profile file is corrupt, using empty profile",
			zap.String("path", s.path), zap.Error(err))
		return core.Profile{}, nil
	}
	return p, nil
}

// Save replaces the profile file atomically
func (s *JSONProfileStore) Save(p core.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
