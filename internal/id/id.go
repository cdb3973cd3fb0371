package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/fmsched/internal/model"
)

// Source issues task IDs. IDs are ULIDs with monotonic entropy, so the
// lexicographic order of the IDs is the order they were issued, even inside
// the same millisecond or if the wall clock goes backwards.
type Source struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
	lastMs  uint64
}

// NewSource returns a new ID source.
func NewSource() *Source {
	return newSource(time.Now)
}

func newSource(now func() time.Time) *Source {
	return &Source{
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a new task ID greater than all the previous ones.
func (s *Source) Next() model.TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := max(ulid.Timestamp(s.now()), s.lastMs)
	for {
		id, err := ulid.New(ms, s.entropy)
		if err == nil {
			s.lastMs = ms
			return model.TaskID(id.String())
		}
		// Entropy exhausted for this millisecond, move to the next one.
		ms++
	}
}

// Time returns the time a task ID was issued at.
func Time(tid model.TaskID) (time.Time, error) {
	id, err := ulid.ParseStrict(string(tid))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid task id %q: %w", tid, model.ErrNotValid)
	}
	return ulid.Time(id.Time()), nil
}
