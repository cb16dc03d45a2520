package ports

import (
	"context"

	"github.com/mikey/shortlist-watcher/internal/pipeline"
	"github.com/mikey/shortlist-watcher/internal/runner"
)

// Watcher is the control surface of the poll loop
type Watcher interface {
	// Start launches the loop in the background
	Start() error

	// Stop ends the loop between iterations
	Stop() error

	// Status returns a snapshot of the loop
	Status() runner.Status

	// CheckNow runs one iteration immediately
	CheckNow(ctx context.Context) (*pipeline.Result, error)

	// Backfill starts an asynchronous backfill and returns its job id
	Backfill(n int) string

	// Job looks up a backfill job
	Job(id string) (runner.Job, bool)
}

var _ Watcher = (*runner.Runner)(nil)
