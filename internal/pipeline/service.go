package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/metrics"
	"github.com/mikey/shortlist-watcher/internal/utils"
	"go.uber.org/zap"
)

const (
	// MaxBackfill bounds a single backfill request
	MaxBackfill = 500
	// DefaultBackfill is used when no count is given
	DefaultBackfill = 50

	defaultPreviewSize = 400
)

// Outcome describes what an iteration did with the newest message
type Outcome string

const (
	OutcomeEmpty     Outcome = "empty"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeUntrusted Outcome = "untrusted"
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
)

// Result is the outcome of processing one message
type Result struct {
	MessageID       string      `json:"message_id,omitempty"`
	Outcome         Outcome     `json:"outcome"`
	Evaluation      *Evaluation `json:"evaluation,omitempty"`
	Preview         string      `json:"body_preview,omitempty"`
	CalendarCreated bool        `json:"calendar_event_created"`
	Notified        bool        `json:"notified"`
}

// BackfillSummary reports a bulk run over historical messages
type BackfillSummary struct {
	JobID     string               `json:"job_id"`
	Requested int                  `json:"requested"`
	Processed int                  `json:"processed"`
	Skipped   int                  `json:"skipped"`
	Failed    int                  `json:"failed"`
	Verdicts  map[core.Verdict]int `json:"verdicts"`
	Errors    []string             `json:"errors,omitempty"`
	Started   time.Time            `json:"started"`
	Finished  time.Time            `json:"finished"`
}

// Dependencies are the collaborators of a MatchService. Archive, Calendar,
// Notifier and Metrics are optional.
type Dependencies struct {
	Mail      core.MailClient
	Profiles  core.ProfileStore
	State     core.StateStore
	Archive   core.MatchArchive
	Calendar  core.CalendarClient
	Notifier  core.Notifier
	Evaluator *Evaluator
	Metrics   *metrics.Metrics
	Text      *utils.TextProcessor
	Logger    *zap.Logger
}

// Options tune persistence and side effects
type Options struct {
	Retention        int
	PreviewSize      int
	RequireKeyword   bool
	Keywords         []string
	NotifyMinVerdict core.Verdict
}

// MatchService owns the single-iteration pipeline. Iterations and backfill
// steps are serialized so concurrent callers never interleave state saves.
type MatchService struct {
	deps Dependencies
	opts Options
	now  func() time.Time

	mu sync.Mutex
}

// NewMatchService validates dependencies and creates a service
func NewMatchService(deps Dependencies, opts Options) (*MatchService, error) {
	switch {
	case deps.Mail == nil:
		return nil, errors.New("mail client is required")
	case deps.Profiles == nil:
		return nil, errors.New("profile store is required")
	case deps.State == nil:
		return nil, errors.New("state store is required")
	case deps.Evaluator == nil:
		return nil, errors.New("evaluator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Text == nil {
		deps.Text = utils.NewTextProcessor(deps.Logger)
	}
	if opts.Retention <= 0 {
		opts.Retention = core.DefaultRetention
	}
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = defaultPreviewSize
	}
	if !opts.NotifyMinVerdict.Valid() {
		opts.NotifyMinVerdict = core.ConfirmedMatch
	}
	return &MatchService{deps: deps, opts: opts, now: time.Now}, nil
}

// ProcessNewest runs one iteration over the newest inbox message. Errors
// are external I/O failures; the watermark is untouched when one is returned
// before the message was persisted.
func (s *MatchService) ProcessNewest(ctx context.Context, observe core.PhaseObserver) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notify(observe, core.PhaseFetching)

	profile, err := s.deps.Profiles.Load()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	st := s.deps.State.Load()

	id, err := s.deps.Mail.NewestMessageID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch newest message id: %w", err)
	}
	if id == "" {
		notify(observe, core.PhaseSkip)
		s.deps.Metrics.ObserveOutcome(string(OutcomeEmpty))
		return &Result{Outcome: OutcomeEmpty}, nil
	}
	if id == st.LastMessageID {
		notify(observe, core.PhaseSkip)
		s.deps.Metrics.ObserveOutcome(string(OutcomeSkipped))
		s.deps.Logger.Debug("Newest message already processed", zap.String("message_id", id))
		return &Result{MessageID: id, Outcome: OutcomeSkipped}, nil
	}

	return s.process(ctx, id, profile, st, observe, true)
}

// process fetches, evaluates and persists one message. A live run moves the
// watermark to id in the same save as the match record and then runs side
// effects; a backfill run does neither.
func (s *MatchService) process(ctx context.Context, id string, profile core.Profile, st core.ProcessingState, observe core.PhaseObserver, live bool) (*Result, error) {
	logger := s.deps.Logger.With(zap.String("message_id", id))

	msg, err := s.deps.Mail.FetchMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", id, err)
	}
	if msg.ID == "" {
		msg.ID = id
	}

	src := func(ctx context.Context) ([]core.AttachmentBlob, error) {
		return s.deps.Mail.ListAttachments(ctx, id)
	}
	ev := s.deps.Evaluator.Evaluate(ctx, profile, msg, src, observe)
	res := &Result{
		MessageID:  id,
		Evaluation: ev,
		Preview:    s.deps.Text.Preview(msg.Body, s.opts.PreviewSize),
	}

	notify(observe, core.PhasePersisting)
	if ev.Gated {
		res.Outcome = OutcomeUntrusted
		if live {
			st.LastMessageID = id
			if err := s.deps.State.Save(st); err != nil {
				return nil, fmt.Errorf("save state: %w", err)
			}
		}
		s.deps.Metrics.ObserveOutcome(string(res.Outcome))
		return res, nil
	}

	res.Outcome = OutcomeProcessed
	s.deps.Metrics.ObserveVerdict(ev.Verdict)
	s.deps.Metrics.ObserveAttachments(ev.Attachments)

	if ev.Verdict.IsMatch() {
		s.archive(ctx, profile, ev, res.Preview, logger)
		st.Apply(s.record(ev), ev.Verdict, s.opts.Retention)
	}

	if profile.Backfill(ev.Sender) {
		if err := s.deps.Profiles.Save(profile); err != nil {
			logger.Warn("Failed to save profile", zap.Error(err))
		} else {
			logger.Info("Profile updated",
				zap.String("name", profile.Name),
				zap.String("registration_number", profile.RegistrationNumber),
				zap.String("display_name", profile.DisplayName))
		}
	}

	if live {
		st.LastMessageID = id
	}
	if err := s.deps.State.Save(st); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	s.deps.Metrics.ObserveOutcome(string(res.Outcome))

	counts := st.Counts()
	logger.Info("Running totals",
		zap.Int("confirmed", counts[core.ConfirmedMatch]),
		zap.Int("possibilities", counts[core.Possibility]),
		zap.Int("partial", counts[core.PartialMatch]))

	if live {
		s.sideEffects(ctx, msg, ev, res, observe, logger)
	}
	return res, nil
}

func (s *MatchService) record(ev *Evaluation) core.MatchRecord {
	return core.MatchRecord{
		MessageID:       ev.MessageID,
		Timestamp:       s.now(),
		FromDisplayName: ev.Sender.DisplayName,
		FromEmail:       ev.Sender.Address,
		ParsedName:      ev.Sender.Name,
		ParsedReg:       ev.Sender.RegCode,
		Subject:         ev.Subject,
	}
}

// archive writes the audit artifact. A failure is logged and never blocks the watermark.
func (s *MatchService) archive(ctx context.Context, profile core.Profile, ev *Evaluation, preview string, logger *zap.Logger) {
	if s.deps.Archive == nil {
		return
	}
	artifact := &core.MatchArtifact{
		Timestamp: s.now(),
		Profile:   profile,
		Email: core.EmailSummary{
			MessageID:       ev.MessageID,
			FromDisplayName: ev.Sender.DisplayName,
			FromEmail:       ev.Sender.Address,
			ParsedName:      ev.Sender.Name,
			ParsedReg:       ev.Sender.RegCode,
			Subject:         ev.Subject,
			BodyPreview:     preview,
		},
		MatchType:   ev.Verdict,
		Attachments: ev.Attachments,
	}
	if err := s.deps.Archive.Store(ctx, artifact); err != nil {
		logger.Error("Failed to archive match", zap.Error(err))
		s.deps.Metrics.ObserveSideEffectFailure("archive")
	}
}

// sideEffects runs after the state is durable, so nothing here can undo it
func (s *MatchService) sideEffects(ctx context.Context, msg *core.Message, ev *Evaluation, res *Result, observe core.PhaseObserver, logger *zap.Logger) {
	calendar := ev.Verdict == core.ConfirmedMatch && s.deps.Calendar != nil && s.keywordGate(ev.Subject, res.Preview)
	notifier := ev.Verdict.IsMatch() && s.deps.Notifier != nil && !s.opts.NotifyMinVerdict.StrongerThan(ev.Verdict)
	if !calendar && !notifier {
		return
	}
	notify(observe, core.PhaseSideEffects)

	if calendar {
		_ = s.safely("calendar", logger, func() error {
			created, err := s.deps.Calendar.CreateEvent(ctx, ev.Subject, msg.Body, ev.MessageID)
			if err != nil {
				return err
			}
			res.CalendarCreated = created
			if created {
				logger.Info("Calendar event created")
			}
			return nil
		})
	}

	if notifier {
		_ = s.safely("notify", logger, func() error {
			err := s.deps.Notifier.Notify(ctx, core.Notification{
				MessageID: ev.MessageID,
				Verdict:   ev.Verdict,
				Subject:   ev.Subject,
				Sender:    ev.Sender,
				Preview:   res.Preview,
			})
			if err == nil {
				res.Notified = true
			}
			return err
		})
	}
}

// safely runs a side effect, turning panics into errors
func (s *MatchService) safely(effect string, logger *zap.Logger, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", effect, r)
		}
		if err != nil {
			logger.Error("Side effect failed", zap.String("effect", effect), zap.Error(err))
			s.deps.Metrics.ObserveSideEffectFailure(effect)
		}
	}()
	return fn()
}

func (s *MatchService) keywordGate(subject, preview string) bool {
	if !s.opts.RequireKeyword {
		return true
	}
	text := strings.ToLower(subject + " " + preview)
	for _, kw := range s.opts.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Backfill processes up to n of the latest messages, oldest first. Messages
// that already have a record are skipped and the watermark is left alone.
// An empty jobID gets a fresh one.
func (s *MatchService) Backfill(ctx context.Context, jobID string, n int) (*BackfillSummary, error) {
	if jobID == "" {
		jobID = uuid.NewString()
	}
	n = ClampBackfill(n)
	summary := &BackfillSummary{
		JobID:     jobID,
		Requested: n,
		Verdicts:  map[core.Verdict]int{},
		Started:   s.now(),
	}
	logger := s.deps.Logger.With(zap.String("job_id", summary.JobID))

	ids, err := s.deps.Mail.RecentMessageIDs(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	logger.Info("Backfill started", zap.Int("messages", len(ids)))

	for i := len(ids) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			summary.Errors = append(summary.Errors, ctx.Err().Error())
			break
		}
		res, skipped, err := s.backfillOne(ctx, ids[i])
		if skipped {
			summary.Skipped++
			s.deps.Metrics.ObserveOutcome(string(OutcomeDuplicate))
			continue
		}
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, err.Error())
			s.deps.Metrics.ObserveOutcome(string(OutcomeFailed))
			logger.Warn("Backfill message failed", zap.String("message_id", ids[i]), zap.Error(err))
			continue
		}
		summary.Processed++
		if res.Evaluation != nil {
			summary.Verdicts[res.Evaluation.Verdict]++
		}
	}

	summary.Finished = s.now()
	logger.Info("Backfill finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *MatchService) backfillOne(ctx context.Context, id string) (*Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.deps.State.Load()
	if st.HasRecord(id) {
		return nil, true, nil
	}
	profile, err := s.deps.Profiles.Load()
	if err != nil {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}
	res, err := s.process(ctx, id, profile, st, nil, false)
	return res, false, err
}

// ClampBackfill bounds a requested backfill size to 1..MaxBackfill
func ClampBackfill(n int) int {
	switch {
	case n <= 0:
		return 1
	case n > MaxBackfill:
		return MaxBackfill
	default:
		return n
	}
}
