// Package ports holds the interfaces the HTTP API depends on
package ports

import (
	"context"

	"github.com/mikey/shortlist-watcher/internal/core"
)

// ArchiveReader browses stored match artifacts
type ArchiveReader interface {
	// Recent returns up to limit artifacts, newest first
	Recent(ctx context.Context, limit int) ([]core.MatchArtifact, error)

	// Get returns one artifact or archive.ErrNotFound
	Get(ctx context.Context, id string) (*core.MatchArtifact, error)
}
