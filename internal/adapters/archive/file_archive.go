package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
)

const (
	filePrefix = "match_"
	fileSuffix = ".json"
)

// FileArchive writes each artifact to its own match_<unix-nanos>_<id>.json file in a flat directory
type FileArchive struct {
	dir       string
	retention time.Duration
	logger    *zap.Logger
	cleaner   *cleaner
}

// NewFileArchive creates a file archive rooted at dir. A zero retention keeps artifacts forever.
func NewFileArchive(dir string, retention, cleanupFreq time.Duration, logger *zap.Logger) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	a := &FileArchive{
		dir:       dir,
		retention: retention,
		logger:    logger,
		cleaner:   newCleaner(cleanupFreq, logger),
	}
	a.cleaner.start(retention, a.Cleanup)
	return a, nil
}

// Store writes the artifact atomically
func (a *FileArchive) Store(ctx context.Context, artifact *core.MatchArtifact) error {
	prepare(artifact)
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	path := filepath.Join(a.dir, artifactFileName(artifact))
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	a.logger.Debug("Stored match artifact",
		zap.String("path", path),
		zap.String("message_id", artifact.Email.MessageID))
	return nil
}

// Recent returns the newest artifacts first
func (a *FileArchive) Recent(ctx context.Context, limit int) ([]core.MatchArtifact, error) {
	names, err := a.files()
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	out := make([]core.MatchArtifact, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(a.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
		}
		var artifact core.MatchArtifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			a.logger.Warn("Skipping unreadable artifact", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, artifact)
	}
	return out, nil
}

// Get returns the artifact with the given id, scanning the archive when its
// file name does not carry the id
func (a *FileArchive) Get(ctx context.Context, id string) (*core.MatchArtifact, error) {
	if named, _ := filepath.Glob(filepath.Join(a.dir, filePrefix+"*_"+id+fileSuffix)); len(named) == 1 {
		if artifact, err := readArtifact(named[0]); err == nil && artifact.ID == id {
			return artifact, nil
		}
	}

	names, err := a.files()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if artifact, err := readArtifact(filepath.Join(a.dir, name)); err == nil && artifact.ID == id {
			return artifact, nil
		}
	}
	return nil, ErrNotFound
}

// Cleanup removes artifacts older than the retention period
func (a *FileArchive) Cleanup(ctx context.Context) error {
	if a.retention <= 0 {
		return nil
	}
	names, err := a.files()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-a.retention).UnixNano()
	removed := 0
	for _, name := range names {
		ts, ok := fileTimestamp(name)
		if !ok || ts >= cutoff {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, name)); err != nil {
			return fmt.Errorf("failed to remove artifact %s: %w", name, err)
		}
		removed++
	}

	a.logger.Debug("Cleaned up match artifacts", zap.Int("removed", removed))
	return nil
}

// Stop stops the background cleanup task
func (a *FileArchive) Stop() {
	a.cleaner.stop()
}

func (a *FileArchive) files() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// artifactFileName is match_<unix-nanos>_<id>.json; the id keeps artifacts
// stored within the same clock tick apart
func artifactFileName(artifact *core.MatchArtifact) string {
	return fmt.Sprintf("%s%019d_%s%s", filePrefix, artifact.Timestamp.UnixNano(), artifact.ID, fileSuffix)
}

// fileTimestamp reads the nanosecond timestamp from an artifact file name
func fileTimestamp(name string) (int64, bool) {
	stem := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	stem, _, _ = strings.Cut(stem, "_")
	ts, err := strconv.ParseInt(stem, 10, 64)
	return ts, err == nil
}

func readArtifact(path string) (*core.MatchArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact core.MatchArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}
