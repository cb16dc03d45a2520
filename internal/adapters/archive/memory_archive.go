package archive

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
)

// MemoryArchive keeps artifacts in process memory
type MemoryArchive struct {
	mu        sync.RWMutex
	artifacts []core.MatchArtifact
	retention time.Duration
	logger    *zap.Logger
	cleaner   *cleaner
}

// NewMemoryArchive creates an in-memory archive
func NewMemoryArchive(retention, cleanupFreq time.Duration, logger *zap.Logger) *MemoryArchive {
	a := &MemoryArchive{
		retention: retention,
		logger:    logger,
		cleaner:   newCleaner(cleanupFreq, logger),
	}
	a.cleaner.start(retention, a.Cleanup)
	return a
}

// Store appends the artifact
func (a *MemoryArchive) Store(ctx context.Context, artifact *core.MatchArtifact) error {
	prepare(artifact)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.artifacts = append(a.artifacts, *artifact)
	return nil
}

// Recent returns the newest artifacts first
func (a *MemoryArchive) Recent(ctx context.Context, limit int) ([]core.MatchArtifact, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := len(a.artifacts)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.MatchArtifact, 0, n)
	for i := len(a.artifacts) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, a.artifacts[i])
	}
	return out, nil
}

// Get returns the artifact with the given id
func (a *MemoryArchive) Get(ctx context.Context, id string) (*core.MatchArtifact, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i := range a.artifacts {
		if a.artifacts[i].ID == id {
			art := a.artifacts[i]
			return &art, nil
		}
	}
	return nil, ErrNotFound
}

// Cleanup removes artifacts older than the retention period
func (a *MemoryArchive) Cleanup(ctx context.Context) error {
	if a.retention <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-a.retention)

	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.artifacts[:0]
	for _, art := range a.artifacts {
		if art.Timestamp.After(cutoff) {
			kept = append(kept, art)
		}
	}
	expired := len(a.artifacts) - len(kept)
	a.artifacts = kept

	a.logger.Debug("Cleaned up match artifacts", zap.Int("expired_count", expired))
	return nil
}

// Stop stops the background cleanup task
func (a *MemoryArchive) Stop() {
	a.cleaner.stop()
}
