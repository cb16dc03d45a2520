// Package logstream keeps a bounded, cursor-addressable buffer of progress lines
// for viewers that poll for new output.
package logstream

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the number of lines kept before the oldest are evicted
	DefaultCapacity = 1000
	// DefaultLimit is the number of lines Recent returns when no limit is given
	DefaultLimit = 200

	timestampLayout = "2006-01-02 15:04:05"
)

// Entry is one stored line
type Entry struct {
	ID   int64  `json:"id"`
	Line string `json:"line"`
}

// Stream is a fixed-capacity ring of log lines with monotonically increasing ids.
// It is safe for concurrent writers and readers.
type Stream struct {
	mu     sync.Mutex
	buf    []Entry
	start  int
	size   int
	nextID int64
	now    func() time.Time
}

// New creates a stream holding at most capacity lines
func New(capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stream{
		buf:    make([]Entry, capacity),
		nextID: 1,
		now:    time.Now,
	}
}

// Log appends a timestamped line and returns its id
func (s *Stream) Log(msg string) int64 {
	line := fmt.Sprintf("[%s] %s", s.now().Format(timestampLayout), msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	entry := Entry{ID: id, Line: line}
	if s.size < len(s.buf) {
		s.buf[(s.start+s.size)%len(s.buf)] = entry
		s.size++
	} else {
		s.buf[s.start] = entry
		s.start = (s.start + 1) % len(s.buf)
	}
	return id
}

// Logf formats and appends a line
func (s *Stream) Logf(format string, args ...interface{}) int64 {
	return s.Log(fmt.Sprintf(format, args...))
}

// Recent returns entries with an id greater than sinceID, oldest first,
// keeping only the newest limit of them. A sinceID of zero returns everything
// still buffered; a limit of zero or less uses DefaultLimit.
func (s *Stream) Recent(limit int, sinceID int64) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, min(limit, s.size))
	for i := 0; i < s.size; i++ {
		e := s.buf[(s.start+i)%len(s.buf)]
		if e.ID > sinceID {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// LastID returns the id of the newest entry, or zero when nothing was logged
func (s *Stream) LastID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID - 1
}

// Len returns the number of buffered entries
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
