// Package archive stores one audit artifact per matched message.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/shortlist-watcher/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an artifact does not exist
var ErrNotFound = errors.New("match artifact not found")

// Archive is a match archive that can look artifacts up and owns a
// background cleanup task
type Archive interface {
	core.MatchArchive
	Get(ctx context.Context, id string) (*core.MatchArtifact, error)
	Stop()
}

var (
	_ Archive = (*FileArchive)(nil)
	_ Archive = (*MemoryArchive)(nil)
	_ Archive = (*SQLArchive)(nil)
)

// prepare fills in the id and timestamp of a new artifact
func prepare(a *core.MatchArtifact) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	a.Timestamp = a.Timestamp.UTC()
}

// cleaner runs an archive's Cleanup on a ticker until stopped
type cleaner struct {
	freq   time.Duration
	logger *zap.Logger
	stopCh chan struct{}
}

func newCleaner(freq time.Duration, logger *zap.Logger) *cleaner {
	return &cleaner{
		freq:   freq,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// start launches the background task when both retention and frequency are set
func (c *cleaner) start(retention time.Duration, cleanup func(context.Context) error) {
	if retention <= 0 || c.freq <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(c.freq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := cleanup(context.Background()); err != nil {
					c.logger.Error("Failed to clean up match archive", zap.Error(err))
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

func (c *cleaner) stop() {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
}
