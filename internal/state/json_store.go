// Package state persists the processing state and the identity profile as JSON files.
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

// JSONStore keeps the processing state in a single JSON file
type JSONStore struct {
	path   string
	logger *zap.Logger
}

// NewJSONStore creates a state store backed by path
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the backing file
func (s *JSONStore) Path() string {
	return s.path
}

// Load returns the persisted state. A missing, unreadable or corrupt file
// yields an empty state.
func (s *JSONStore) Load() core.ProcessingState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Failed to read state file, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return core.NewProcessingState()
	}

	var st core.ProcessingState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("State file is corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return core.NewProcessingState()
	}
	st.Normalize()
	return st
}

// Save replaces the state file atomically
func (s *JSONStore) Save(st core.ProcessingState) error {
	st.Normalize()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
