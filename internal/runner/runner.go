// Package runner schedules the match pipeline: the poll loop with backoff,
// manual checks and asynchronous backfill jobs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/metrics"
	"github.com/mikey/shortlist-watcher/internal/pipeline"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyRunning is returned when a second loop is started
	ErrAlreadyRunning = errors.New("watcher is already running")
	// ErrNotRunning is returned by Stop when no loop is active
	ErrNotRunning = errors.New("watcher is not running")
)

const maxJobs = 20

// Processor is the pipeline the runner drives
type Processor interface {
	ProcessNewest(ctx context.Context, observe core.PhaseObserver) (*pipeline.Result, error)
	Backfill(ctx context.Context, jobID string, n int) (*pipeline.BackfillSummary, error)
}

// Options control loop timing
type Options struct {
	Interval          time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier int
}

// Status is a snapshot of the loop
type Status struct {
	Running             bool             `json:"running"`
	Phase               string           `json:"phase"`
	LastRun             time.Time        `json:"last_run,omitempty"`
	LastError           string           `json:"last_error,omitempty"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	NextRun             time.Time        `json:"next_run,omitempty"`
	LastResult          *pipeline.Result `json:"last_result,omitempty"`
}

// JobState is the lifecycle of a backfill job
type JobState string

const (
	JobRunning  JobState = "running"
	JobFinished JobState = "finished"
	JobFailed   JobState = "failed"
)

// Job tracks one asynchronous backfill
type Job struct {
	ID        string                    `json:"job_id"`
	Requested int                       `json:"requested"`
	State     JobState                  `json:"state"`
	Started   time.Time                 `json:"started"`
	Summary   *pipeline.BackfillSummary `json:"summary,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// Runner owns the poll loop
type Runner struct {
	proc    Processor
	opts    Options
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	status Status
	phase  core.Phase
	cancel context.CancelFunc
	done   chan struct{}
	jobs   map[string]*Job

	jobCtx    context.Context
	jobCancel context.CancelFunc
	jobWG     sync.WaitGroup
}

// New creates a runner. The loop is not started.
func New(proc Processor, opts Options, m *metrics.Metrics, logger *zap.Logger) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.BackoffMultiplier <= 0 {
		opts.BackoffMultiplier = 4
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Minute
	}
	jobCtx, jobCancel := context.WithCancel(context.Background())
	return &Runner{
		proc:      proc,
		opts:      opts,
		metrics:   m,
		logger:    logger,
		phase:     core.PhaseIdle,
		jobs:      make(map[string]*Job),
		jobCtx:    jobCtx,
		jobCancel: jobCancel,
	}
}

// Start launches the loop in the background
func (r *Runner) Start() error {
	ctx, err := r.begin(context.Background())
	if err != nil {
		return err
	}
	go r.loop(ctx)
	return nil
}

// Run runs the loop until ctx is cancelled or Stop is called
func (r *Runner) Run(ctx context.Context) error {
	ctx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	r.loop(ctx)
	return nil
}

// Stop ends the loop between iterations and waits for it to exit
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Close stops the loop if it is running and cancels outstanding backfill jobs
func (r *Runner) Close() error {
	if err := r.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	r.jobCancel()
	r.jobWG.Wait()
	return nil
}

func (r *Runner) begin(parent context.Context) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil, ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.status.Running = true
	r.phase = core.PhaseIdle
	return ctx, nil
}

func (r *Runner) loop(ctx context.Context) {
	r.logger.Info("Watcher started",
		zap.Duration("interval", r.opts.Interval),
		zap.Duration("max_backoff", r.opts.MaxBackoff))

	defer func() {
		r.mu.Lock()
		r.cancel()
		r.cancel = nil
		r.status.Running = false
		r.status.NextRun = time.Time{}
		r.phase = core.PhaseStopped
		close(r.done)
		r.mu.Unlock()
		r.logger.Info("Watcher stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		res, err := r.iterate(ctx, r.setPhase)
		if ctx.Err() != nil && err != nil {
			return
		}
		delay := r.record(res, err)

		r.setPhase(core.PhaseSleeping)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// iterate runs one pipeline pass. A panic is reported as an error.
func (r *Runner) iterate(ctx context.Context, observe core.PhaseObserver) (res *pipeline.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("iteration panicked: %v", p)
			r.logger.Error("Recovered from panic in iteration", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()
	return r.proc.ProcessNewest(ctx, observe)
}

// record updates the status after an iteration and returns the next delay
func (r *Runner) record(res *pipeline.Result, err error) time.Duration {
	now := time.Now()
	r.metrics.ObserveIteration(err, now)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.LastRun = now
	if err != nil {
		r.status.ConsecutiveFailures++
		r.status.LastError = err.Error()
	} else {
		r.status.ConsecutiveFailures = 0
		r.status.LastError = ""
		r.status.LastResult = res
	}

	delay := Backoff(r.opts.Interval, r.status.ConsecutiveFailures, r.opts.BackoffMultiplier, r.opts.MaxBackoff)
	r.status.NextRun = now.Add(delay)

	if err != nil {
		r.logger.Error("Iteration failed",
			zap.Error(err),
			zap.Int("consecutive_failures", r.status.ConsecutiveFailures),
			zap.Duration("retry_in", delay))
	}
	return delay
}

func (r *Runner) setPhase(p core.Phase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
	r.logger.Debug("Phase changed", zap.String("phase", p.String()))
}

// Status returns a snapshot of the loop
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.status
	st.Phase = r.phase.String()
	return st
}

// Phase returns the current loop phase
func (r *Runner) Phase() core.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// CheckNow runs one iteration immediately, independent of the loop
func (r *Runner) CheckNow(ctx context.Context) (*pipeline.Result, error) {
	r.logger.Info("Manual check requested")
	res, err := r.iterate(ctx, nil)
	r.metrics.ObserveIteration(err, time.Now())
	return res, err
}

// Backfill starts a backfill job in the background and returns its id
func (r *Runner) Backfill(n int) string {
	n = pipeline.ClampBackfill(n)
	job := &Job{
		ID:        uuid.NewString(),
		Requested: n,
		State:     JobRunning,
		Started:   time.Now(),
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.pruneJobs()
	r.mu.Unlock()

	r.jobWG.Add(1)
	go func() {
		defer r.jobWG.Done()
		summary, err := r.runBackfill(job.ID, n)

		r.mu.Lock()
		defer r.mu.Unlock()
		job.Summary = summary
		if err != nil {
			job.State = JobFailed
			job.Error = err.Error()
			return
		}
		job.State = JobFinished
	}()
	return job.ID
}

func (r *Runner) runBackfill(id string, n int) (summary *pipeline.BackfillSummary, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("backfill panicked: %v", p)
			r.logger.Error("Recovered from panic in backfill", zap.String("job_id", id), zap.Any("panic", p))
		}
	}()
	summary, err = r.proc.Backfill(r.jobCtx, id, n)
	if err != nil {
		r.logger.Error("Backfill failed", zap.String("job_id", id), zap.Error(err))
	}
	return summary, err
}

// Job returns a copy of a backfill job
func (r *Runner) Job(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns all tracked backfill jobs, newest first
func (r *Runner) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.After(out[j].Started) })
	return out
}

// pruneJobs drops the oldest finished jobs beyond maxJobs. Caller holds mu.
func (r *Runner) pruneJobs() {
	if len(r.jobs) <= maxJobs {
		return
	}
	var finished []*Job
	for _, job := range r.jobs {
		if job.State != JobRunning {
			finished = append(finished, job)
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].Started.Before(finished[j].Started) })
	for _, job := range finished {
		if len(r.jobs) <= maxJobs {
			break
		}
		delete(r.jobs, job.ID)
	}
}
