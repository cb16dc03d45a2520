package eventinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", 5*3600+1800)
	}
	return loc
}

type stubExtractor struct {
	details *core.EventDetails
	err     error
	calls   int
}

func (s *stubExtractor) ExtractEvent(ctx context.Context, text string) (*core.EventDetails, error) {
	s.calls++
	return s.details, s.err
}

func TestExtractPatterns(t *testing.T) {
	loc := kolkata(t)
	e := NewExtractor(loc, DefaultHalls(), DefaultBlocks(), nil, nil, zap.NewNop())

	text := "Dear Krish,\nYou are shortlisted. The interview is on 12th March 2025 at 10:30 AM in Homi Bhabha hall.\n" +
		"Join: https://meet.example.com/abc-def."

	d := e.ExtractPatterns(text)
	require.NotNil(t, d.Start)
	assert.Equal(t, time.Date(2025, time.March, 12, 10, 30, 0, 0, loc), *d.Start)
	assert.Equal(t, "SJT 4th floor", d.Location)
	assert.Equal(t, "https://meet.example.com/abc-def", d.Link)
}

func TestExtractPatternsVariants(t *testing.T) {
	loc := time.UTC
	e := NewExtractor(loc, DefaultHalls(), DefaultBlocks(), nil, nil, zap.NewNop())

	tests := []struct {
		text  string
		want  time.Time
		place string
	}{
		{"Report on 3 Jan 2026, 2 pm at PRP 301", time.Date(2026, 1, 3, 14, 0, 0, 0, loc), "Pearl Research Park"},
		{"Test: 21st august 2025 - 9.15am, SJT lab", time.Date(2025, 8, 21, 9, 15, 0, 0, loc), "Silver Jubilee Tower"},
	}
	for _, tt := range tests {
		d := e.ExtractPatterns(tt.text)
		require.NotNil(t, d.Start, tt.text)
		assert.Equal(t, tt.want, *d.Start, tt.text)
		assert.Equal(t, tt.place, d.Location, tt.text)
	}
}

func TestBlockCodesNeedWholeWords(t *testing.T) {
	e := NewExtractor(time.UTC, nil, DefaultBlocks(), nil, nil, zap.NewNop())
	assert.Empty(t, e.ExtractPatterns("Please attend the session").Location)
}

func TestExtractUsesFallbackOnlyWithoutStart(t *testing.T) {
	start := time.Date(2025, 5, 1, 4, 0, 0, 0, time.UTC)
	stub := &stubExtractor{details: &core.EventDetails{Start: &start, Location: "Online", Link: "https://x.example"}}
	loc := kolkata(t)
	e := NewExtractor(loc, nil, nil, stub, nil, zap.NewNop())

	d := e.Extract(context.Background(), "Interview next Thursday morning")
	require.NotNil(t, d.Start)
	assert.True(t, start.Equal(*d.Start))
	assert.Equal(t, loc, d.Start.Location())
	assert.Equal(t, "Online", d.Location)
	assert.Equal(t, 1, stub.calls)

	e.Extract(context.Background(), "Interview on 1 May 2025 at 9:30 am")
	assert.Equal(t, 1, stub.calls)
}

func TestExtractFallbackErrorKeepsPatterns(t *testing.T) {
	stub := &stubExtractor{err: errors.New("rate limited")}
	e := NewExtractor(time.UTC, DefaultHalls(), nil, stub, nil, zap.NewNop())

	d := e.Extract(context.Background(), "Venue: Anna Auditorium, date to be announced")
	assert.Nil(t, d.Start)
	assert.Equal(t, "Opposite MGR", d.Location)
}

func TestPlacesFromMapIsSorted(t *testing.T) {
	got := PlacesFromMap(map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, []Place{{"a", "1"}, {"b", "2"}}, got)
}
