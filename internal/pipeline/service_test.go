package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/shortlist-watcher/internal/attachments"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/match"
	"github.com/mikey/shortlist-watcher/internal/whitelist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var krish = core.Profile{
	Name:               "Krish Verma",
	RegistrationNumber: "22BCE2382",
	PrimaryEmail:       "krish@example.com",
}

const shortlistCSV = "Name,Reg,Email\nKrish Verma,22BCE2382,other@x.com\nPriya Sharma,21CSE1234,priya@x.com\n"

type harness struct {
	mail     *fakeMail
	profiles *memProfiles
	state    *memState
	archive  *memArchive
	calendar *fakeCalendar
	notifier *fakeNotifier
	svc      *MatchService
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	trusted []string
	gate    bool
	opts    Options
}

func withTrusted(entries ...string) harnessOption {
	return func(c *harnessConfig) { c.trusted = entries }
}

func withoutGate() harnessOption {
	return func(c *harnessConfig) { c.gate = false }
}

func withOptions(o Options) harnessOption {
	return func(c *harnessConfig) { c.opts = o }
}

func newHarness(t *testing.T, profile core.Profile, options ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{gate: true}
	for _, o := range options {
		o(&cfg)
	}

	logger := zap.NewNop()
	classifier := match.NewClassifier(true, 0.8)
	var trusted *whitelist.Checker
	if len(cfg.trusted) > 0 {
		trusted = whitelist.NewChecker(cfg.trusted, logger)
	}

	h := &harness{
		mail:     newFakeMail(),
		profiles: &memProfiles{profile: profile},
		state:    newMemState(),
		archive:  &memArchive{},
		calendar: &fakeCalendar{},
		notifier: &fakeNotifier{},
	}
	svc, err := NewMatchService(Dependencies{
		Mail:      h.mail,
		Profiles:  h.profiles,
		State:     h.state,
		Archive:   h.archive,
		Calendar:  h.calendar,
		Notifier:  h.notifier,
		Evaluator: NewEvaluator(classifier, attachments.NewScanner(classifier, logger), trusted, cfg.gate, logger),
		Logger:    logger,
	}, cfg.opts)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func TestNewMatchServiceRequiresDependencies(t *testing.T) {
	_, err := NewMatchService(Dependencies{}, Options{})
	assert.Error(t, err)

	_, err = NewMatchService(Dependencies{Mail: newFakeMail(), Profiles: &memProfiles{}, State: newMemState()}, Options{})
	assert.EqualError(t, err, "evaluator is required")
}

func TestProcessNewestConfirmedFromHeader(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.deliver(&core.Message{
		ID:      "m1",
		From:    "Krish Verma 22BCE2382 <krish.v@univ.edu>",
		Subject: "Interview schedule",
		Body:    "Please report at 10 AM.",
	})

	var phases []core.Phase
	res, err := h.svc.ProcessNewest(context.Background(), func(p core.Phase) { phases = append(phases, p) })
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Equal(t, core.ConfirmedMatch, res.Evaluation.Verdict)
	assert.Equal(t, core.ConfirmedMatch, res.Evaluation.Header)
	assert.True(t, res.CalendarCreated)
	assert.True(t, res.Notified)

	st := h.state.Load()
	assert.Equal(t, "m1", st.LastMessageID)
	require.Len(t, st.ConfirmedMatches, 1)
	assert.Equal(t, "22BCE2382", st.ConfirmedMatches[0].ParsedReg)
	assert.Equal(t, "krish.v@univ.edu", st.ConfirmedMatches[0].FromEmail)

	assert.Equal(t, []string{"m1"}, h.calendar.calls)
	require.Len(t, h.archive.artifacts, 1)
	assert.Equal(t, core.ConfirmedMatch, h.archive.artifacts[0].MatchType)
	assert.Equal(t, "m1", h.archive.artifacts[0].Email.MessageID)

	assert.Equal(t, []core.Phase{
		core.PhaseFetching,
		core.PhaseClassifying,
		core.PhaseAttachmentScan,
		core.PhaseFusing,
		core.PhasePersisting,
		core.PhaseSideEffects,
	}, phases)
}

func TestProcessNewestIsIdempotent(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.deliver(&core.Message{ID: "m1", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>", Subject: "Selected"})

	_, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)
	before := h.state.Load().Counts()

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, "m1", res.MessageID)
	assert.Equal(t, before, h.state.Load().Counts())
	assert.Len(t, h.calendar.calls, 1)
	assert.Len(t, h.archive.artifacts, 1)
}

func TestProcessNewestEmptyInbox(t *testing.T) {
	h := newHarness(t, krish)

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Zero(t, h.state.saves)
}

func TestProcessNewestSideEffectFailuresKeepState(t *testing.T) {
	for name, cal := range map[string]*fakeCalendar{
		"error": {err: errors.New("calendar unavailable")},
		"panic": {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, krish)
			h.svc.deps.Calendar = cal
			h.mail.deliver(&core.Message{ID: "m1", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>"})

			res, err := h.svc.ProcessNewest(context.Background(), nil)
			require.NoError(t, err)
			assert.False(t, res.CalendarCreated)
			assert.True(t, res.Notified)

			st := h.state.Load()
			assert.Equal(t, "m1", st.LastMessageID)
			assert.Len(t, st.ConfirmedMatches, 1)

			// the next iteration must not retry the side effect
			res, err = h.svc.ProcessNewest(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, OutcomeSkipped, res.Outcome)
			assert.Len(t, cal.calls, 1)
		})
	}
}

func TestProcessNewestArchiveFailureDoesNotBlock(t *testing.T) {
	h := newHarness(t, krish)
	h.archive.err = errors.New("disk full")
	h.mail.deliver(&core.Message{ID: "m1", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>"})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Equal(t, "m1", h.state.Load().LastMessageID)
	assert.Len(t, h.state.Load().ConfirmedMatches, 1)
}

func TestProcessNewestUntrustedSenderIsGated(t *testing.T) {
	h := newHarness(t, krish, withTrusted("univ.edu"))
	h.mail.deliver(&core.Message{
		ID:      "m1",
		From:    "Krish Verma 22BCE2382 <spoof@elsewhere.org>",
		Subject: "Shortlist",
	}, core.AttachmentBlob{Filename: "list.csv", MIMEType: "text/csv", Data: []byte(shortlistCSV)})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, OutcomeUntrusted, res.Outcome)
	assert.True(t, res.Evaluation.Gated)
	assert.Equal(t, core.NoMatch, res.Evaluation.Verdict)
	assert.Zero(t, h.mail.listCalls)

	st := h.state.Load()
	assert.Equal(t, "m1", st.LastMessageID)
	assert.Empty(t, st.ConfirmedMatches)
	assert.Empty(t, h.calendar.calls)
	assert.Zero(t, h.profiles.saves)
}

func TestProcessNewestUntrustedSenderAttachmentsWhenNotGated(t *testing.T) {
	h := newHarness(t, krish, withTrusted("univ.edu"), withoutGate())
	h.mail.deliver(&core.Message{
		ID:      "m1",
		From:    "Placement Office <jobs@elsewhere.org>",
		Subject: "Shortlist",
	}, core.AttachmentBlob{Filename: "list.csv", MIMEType: "text/csv", Data: []byte(shortlistCSV)})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)

	ev := res.Evaluation
	assert.False(t, ev.Trusted)
	assert.False(t, ev.Gated)
	assert.Equal(t, core.NoMatch, ev.Header)
	assert.Equal(t, core.ConfirmedMatch, ev.Attachments.Overall)
	assert.Equal(t, core.ConfirmedMatch, ev.Verdict)
	assert.Equal(t, 1, h.mail.listCalls)
}

func TestProcessNewestAttachmentOnlyMatch(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.deliver(&core.Message{
		ID:      "m1",
		From:    "Placement Office <placements@univ.edu>",
		Subject: "Shortlist attached",
		Body:    "Find the list of shortlisted students attached.",
	}, core.AttachmentBlob{Filename: "list.csv", MIMEType: "text/csv", Data: []byte(shortlistCSV)})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)

	ev := res.Evaluation
	assert.Equal(t, core.NoMatch, ev.Header)
	assert.Equal(t, core.NoMatch, ev.Content)
	assert.Equal(t, core.ConfirmedMatch, ev.Verdict)
	assert.Equal(t, 1, ev.Attachments.TotalAttachments)

	st := h.state.Load()
	require.Len(t, st.ConfirmedMatches, 1)
	assert.Equal(t, "placements@univ.edu", st.ConfirmedMatches[0].FromEmail)
}

func TestProcessNewestFetchErrorKeepsWatermark(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.ids = []string{"ghost"}

	_, err := h.svc.ProcessNewest(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Empty(t, h.state.Load().LastMessageID)
	assert.Zero(t, h.state.saves)
}

func TestProcessNewestNewestIDError(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.newestErr = errors.New("token expired")

	_, err := h.svc.ProcessNewest(context.Background(), nil)
	assert.ErrorContains(t, err, "token expired")
}

func TestProcessNewestSaveErrorIsReturned(t *testing.T) {
	h := newHarness(t, krish)
	h.state.saveErr = errors.New("read-only filesystem")
	h.mail.deliver(&core.Message{ID: "m1", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>"})

	_, err := h.svc.ProcessNewest(context.Background(), nil)
	assert.ErrorContains(t, err, "save state")
	assert.Empty(t, h.calendar.calls)
}

func TestProcessNewestListErrorContinues(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.listErr = errors.New("quota exceeded")
	h.mail.deliver(&core.Message{
		ID:   "m1",
		From: "Someone <someone@univ.edu>",
		Body: "Congratulations Krish Verma!",
	})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)

	ev := res.Evaluation
	assert.Equal(t, "quota exceeded", ev.Attachments.ListError)
	assert.Equal(t, core.Possibility, ev.Verdict)
	assert.Equal(t, "m1", h.state.Load().LastMessageID)
	assert.Len(t, h.state.Load().Possibilities, 1)
}

func TestProcessNewestBackfillsEmptyProfile(t *testing.T) {
	h := newHarness(t, core.Profile{PrimaryEmail: "krish@example.com"})
	h.mail.deliver(&core.Message{ID: "m1", From: `"Krish Verma 22BCE2382" <krish@example.com>`})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, core.PartialMatch, res.Evaluation.Verdict)

	p, err := h.profiles.Load()
	require.NoError(t, err)
	assert.Equal(t, "Krish Verma", p.Name)
	assert.Equal(t, "22BCE2382", p.RegistrationNumber)
	assert.Equal(t, "Krish Verma 22BCE2382", p.DisplayName)
	assert.Equal(t, 1, h.profiles.saves)
}

func TestProcessNewestNoMatchOnlyMovesWatermark(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.deliver(&core.Message{ID: "m1", From: "Newsletter <news@univ.edu>", Body: "Campus news"})

	res, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, core.NoMatch, res.Evaluation.Verdict)
	st := h.state.Load()
	assert.Equal(t, "m1", st.LastMessageID)
	assert.Empty(t, st.ConfirmedMatches)
	assert.Empty(t, st.Possibilities)
	assert.Empty(t, st.PartialMatches)
	assert.Empty(t, h.archive.artifacts)
	assert.Empty(t, h.notifier.notes)
}

func TestKeywordGateBlocksCalendar(t *testing.T) {
	opts := Options{RequireKeyword: true, Keywords: []string{"interview", "shortlist"}}

	h := newHarness(t, krish, withOptions(opts))
	h.mail.deliver(&core.Message{ID: "m1", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>", Subject: "Hostel fees"})
	_, err := h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, h.calendar.calls)

	h.mail.deliver(&core.Message{ID: "m2", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>", Subject: "Technical INTERVIEW"})
	_, err = h.svc.ProcessNewest(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, h.calendar.calls)
}

func TestNotifyMinVerdict(t *testing.T) {
	t.Run("default only confirmed", func(t *testing.T) {
		h := newHarness(t, krish)
		h.mail.deliver(&core.Message{ID: "m1", From: "Someone <someone@univ.edu>", Body: "Krish Verma"})
		res, err := h.svc.ProcessNewest(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, core.Possibility, res.Evaluation.Verdict)
		assert.False(t, res.Notified)
		assert.Empty(t, h.notifier.notes)
		assert.Empty(t, h.calendar.calls)
	})

	t.Run("partial threshold", func(t *testing.T) {
		h := newHarness(t, krish, withOptions(Options{NotifyMinVerdict: core.PartialMatch}))
		h.mail.deliver(&core.Message{ID: "m1", From: "Someone <someone@univ.edu>", Subject: "Result", Body: "Krish Verma"})
		res, err := h.svc.ProcessNewest(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, res.Notified)
		require.Len(t, h.notifier.notes, 1)
		assert.Equal(t, core.Possibility, h.notifier.notes[0].Verdict)
		assert.Equal(t, "Result", h.notifier.notes[0].Subject)
	})
}

func TestBackfill(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.deliver(&core.Message{ID: "m1", From: "Krish Verma 22BCE2382 <krish.v@univ.edu>"})
	h.mail.deliver(&core.Message{ID: "m2", From: "Newsletter <news@univ.edu>"})
	h.mail.deliver(&core.Message{ID: "m3", From: "Someone <someone@univ.edu>", Body: "Krish Verma"})

	// m1 already recorded by a live iteration
	st := h.state.Load()
	st.Apply(core.MatchRecord{MessageID: "m1"}, core.ConfirmedMatch, 100)
	st.LastMessageID = "m0"
	require.NoError(t, h.state.Save(st))

	sum, err := h.svc.Backfill(context.Background(), "", 10)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.JobID)
	assert.Equal(t, 10, sum.Requested)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, 1, sum.Verdicts[core.Possibility])
	assert.Equal(t, 1, sum.Verdicts[core.NoMatch])

	after := h.state.Load()
	assert.Equal(t, "m0", after.LastMessageID)
	assert.Len(t, after.ConfirmedMatches, 1)
	require.Len(t, after.Possibilities, 1)
	assert.Equal(t, "m3", after.Possibilities[0].MessageID)
	assert.Empty(t, h.calendar.calls)
	assert.Empty(t, h.notifier.notes)

	// a second run finds nothing new to record
	sum, err = h.svc.Backfill(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Skipped)
	assert.Len(t, h.state.Load().Possibilities, 1)
}

func TestBackfillProcessesOldestFirst(t *testing.T) {
	h := newHarness(t, krish)
	h.mail.deliver(&core.Message{ID: "a", From: "Someone <someone@univ.edu>", Body: "Krish Verma"})
	h.mail.deliver(&core.Message{ID: "b", From: "Someone <someone@univ.edu>", Body: "Krish Verma"})

	sum, err := h.svc.Backfill(context.Background(), "job-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "job-1", sum.JobID)

	recs := h.state.Load().Possibilities
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].MessageID)
	assert.Equal(t, "b", recs[1].MessageID)
}

func TestClampBackfill(t *testing.T) {
	assert.Equal(t, 1, ClampBackfill(0))
	assert.Equal(t, 1, ClampBackfill(-5))
	assert.Equal(t, 50, ClampBackfill(50))
	assert.Equal(t, MaxBackfill, ClampBackfill(10_000))
}
