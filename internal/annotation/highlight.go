// Package annotation models teacher highlight comments over a normalised
// answer text. All offsets are rune offsets.
package annotation

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRange is returned when end <= start or start is negative.
	ErrInvalidRange = errors.New("invalid highlight range")
	// ErrEmptyComment is returned when a comment has no visible text.
	ErrEmptyComment = errors.New("highlight comment is empty")
	// ErrNotFound is returned for an unknown highlight id.
	ErrNotFound = errors.New("highlight not found")
)

// Range is one highlighted span with its rich-text comment.
type Range struct {
	ID        string    `json:"id"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

// Option customises a Set.
type Option func(*Set)

// WithClock overrides the time source used for range timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Set) { s.now = now }
}

// WithIDGenerator overrides how range ids are produced.
func WithIDGenerator(next func() string) Option {
	return func(s *Set) { s.nextID = next }
}

// Set holds the highlights of a single section answer.
type Set struct {
	mu     sync.RWMutex
	ranges map[string]Range
	now    func() time.Time
	nextID func() string
}

// NewSet returns an empty highlight set.
func NewSet(opts ...Option) *Set {
	s := &Set{
		ranges: make(map[string]Range),
		now:    time.Now,
		nextID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore replaces the set content with previously saved ranges.
func (s *Set) Restore(ranges []Range) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ranges = make(map[string]Range, len(ranges))
	for _, r := range ranges {
		s.ranges[r.ID] = r
	}
}

// Add stores a new highlight and returns its id.
func (s *Set) Add(start, end int, comment string) (string, error) {
	if start < 0 || end <= start {
		return "", ErrInvalidRange
	}
	if IsBlankComment(comment) {
		return "", ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID()
	s.ranges[id] = Range{
		ID:        id,
		Start:     start,
		End:       end,
		Comment:   comment,
		Timestamp: s.now(),
	}
	return id, nil
}

// Update replaces the comment of an existing highlight.
func (s *Set) Update(id, comment string) error {
	if IsBlankComment(comment) {
		return ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.ranges[id]
	if !ok {
		return ErrNotFound
	}
	r.Comment = comment
	r.Timestamp = s.now()
	s.ranges[id] = r
	return nil
}

// Remove deletes a highlight.
func (s *Set) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ranges[id]; !ok {
		return ErrNotFound
	}
	delete(s.ranges, id)
	return nil
}

// Get returns a single highlight.
func (s *Set) Get(id string) (Range, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ranges[id]
	if !ok {
		return Range{}, ErrNotFound
	}
	return r, nil
}

// Len reports the number of highlights.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ranges)
}

// Ranges returns the highlights ordered by start, end, then timestamp.
func (s *Set) Ranges() []Range {
	s.mu.RLock()
	out := make([]Range, 0, len(s.ranges))
	for _, r := range s.ranges {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sortRanges(out)
	return out
}

// Validate returns the ids of highlights that no longer fit a source of the
// given rune length.
func (s *Set) Validate(sourceLength int) []string {
	var stale []string
	for _, r := range s.Ranges() {
		if r.End > sourceLength {
			stale = append(stale, r.ID)
		}
	}
	return stale
}

// Render partitions source according to the set's highlights.
func (s *Set) Render(source string) []Segment {
	return Render(source, s.Ranges())
}

// IsBlankComment reports whether a rich-text comment has no visible text.
func IsBlankComment(comment string) bool {
	return strings.TrimSpace(Normalize(comment)) == ""
}

func sortRanges(ranges []Range) {
	sort.SliceStable(ranges, func(i, j int) bool {
		a, b := ranges[i], ranges[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
