package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/eventinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestBuildEvent(t *testing.T) {
	loc := kolkata(t)
	start := time.Date(2025, 3, 12, 10, 30, 0, 0, loc)

	ev := buildEvent("  ", "m42", core.EventDetails{Start: &start, Link: "https://meet.google.com/abc"}, time.Hour, loc)
	assert.Equal(t, "Shortlisted Event", ev.Summary)
	assert.Equal(t, "Original mail: https://mail.google.com/mail/u/0/#inbox/m42\nJoin link: https://meet.google.com/abc", ev.Description)
	assert.Equal(t, "2025-03-12T10:30:00+05:30", ev.Start.DateTime)
	assert.Equal(t, "2025-03-12T11:30:00+05:30", ev.End.DateTime)
	assert.Equal(t, "Asia/Kolkata", ev.Start.TimeZone)
	assert.Equal(t, "https://meet.google.com/abc", ev.Location)

	ev = buildEvent("Interview", "m1", core.EventDetails{Start: &start, Location: "SJT 4th floor"}, 90*time.Minute, loc)
	assert.Equal(t, "Interview", ev.Summary)
	assert.Equal(t, "SJT 4th floor", ev.Location)
	assert.Equal(t, "2025-03-12T12:00:00+05:30", ev.End.DateTime)
}

type recorder struct {
	mu     sync.Mutex
	events []*calendar.Event
}

func newTestClient(t *testing.T, rec *recorder) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		var ev calendar.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		rec.mu.Lock()
		rec.events = append(rec.events, &ev)
		rec.mu.Unlock()
		ev.Id = "evt1"
		_ = json.NewEncoder(w).Encode(&ev)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ex := eventinfo.NewExtractor(kolkata(t), eventinfo.DefaultHalls(), eventinfo.DefaultBlocks(), nil, nil, zap.NewNop())
	c, err := NewClient(context.Background(), srv.Client(), "", 0, ex, zap.NewNop(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestCreateEvent(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)

	ok, err := c.CreateEvent(context.Background(), "Shortlist: Acme",
		"Your interview is on 12th March 2025 at 10:30 AM in Homi Bhabha hall.", "m7")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, rec.events, 1)
	assert.Equal(t, "Shortlist: Acme", rec.events[0].Summary)
	assert.Equal(t, "SJT 4th floor", rec.events[0].Location)
	assert.Equal(t, "2025-03-12T10:30:00+05:30", rec.events[0].Start.DateTime)
}

func TestCreateEvent_NoDate(t *testing.T) {
	rec := &recorder{}
	c := newTestClient(t, rec)

	ok, err := c.CreateEvent(context.Background(), "Update", "Details will follow.", "m8")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.events)
}
