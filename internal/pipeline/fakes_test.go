package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey/shortlist-watcher/internal/core"
)

type fakeMail struct {
	mu          sync.Mutex
	ids         []string // newest first
	messages    map[string]*core.Message
	attachments map[string][]core.AttachmentBlob
	newestErr   error
	listErr     error
	listCalls   int
}

func newFakeMail() *fakeMail {
	return &fakeMail{
		messages:    map[string]*core.Message{},
		attachments: map[string][]core.AttachmentBlob{},
	}
}

// deliver puts a message at the top of the inbox
func (f *fakeMail) deliver(msg *core.Message, blobs ...core.AttachmentBlob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append([]string{msg.ID}, f.ids...)
	f.messages[msg.ID] = msg
	f.attachments[msg.ID] = blobs
}

func (f *fakeMail) NewestMessageID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.newestErr != nil {
		return "", f.newestErr
	}
	if len(f.ids) == 0 {
		return "", nil
	}
	return f.ids[0], nil
}

func (f *fakeMail) RecentMessageIDs(ctx context.Context, n int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.ids) {
		n = len(f.ids)
	}
	return append([]string(nil), f.ids[:n]...), nil
}

func (f *fakeMail) FetchMessage(ctx context.Context, id string) (*core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("message not found")
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeMail) ListAttachments(ctx context.Context, id string) ([]core.AttachmentBlob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.attachments[id], nil
}

type memProfiles struct {
	mu      sync.Mutex
	profile core.Profile
	saves   int
}

func (m *memProfiles) Load() (core.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile, nil
}

func (m *memProfiles) Save(p core.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = p
	m.saves++
	return nil
}

type memState struct {
	mu      sync.Mutex
	state   core.ProcessingState
	saves   int
	saveErr error
}

func newMemState() *memState {
	return &memState{state: core.NewProcessingState()}
}

func (m *memState) Load() core.ProcessingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	st.ConfirmedMatches = append([]core.MatchRecord(nil), st.ConfirmedMatches...)
	st.Possibilities = append([]core.MatchRecord(nil), st.Possibilities...)
	st.PartialMatches = append([]core.MatchRecord(nil), st.PartialMatches...)
	return st
}

func (m *memState) Save(st core.ProcessingState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = st
	m.saves++
	return nil
}

type fakeCalendar struct {
	mu    sync.Mutex
	calls []string
	err   error
	panic bool
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, subject, body, messageID string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messageID)
	f.mu.Unlock()
	if f.panic {
		panic("calendar exploded")
	}
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []core.Notification
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, n core.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
	return f.err
}

type memArchive struct {
	mu        sync.Mutex
	artifacts []core.MatchArtifact
	err       error
}

func (m *memArchive) Store(ctx context.Context, a *core.MatchArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.artifacts = append(m.artifacts, *a)
	return nil
}

func (m *memArchive) Recent(ctx context.Context, limit int) ([]core.MatchArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.MatchArtifact(nil), m.artifacts...), nil
}

func (m *memArchive) Cleanup(ctx context.Context) error { return nil }
