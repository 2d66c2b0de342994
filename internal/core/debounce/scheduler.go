package debounce

import (
	"sync"
	"time"

	"github.com/moodtide/moodtide/internal/util"
)

// FlushFunc is invoked when a key's quiet window expires. The callee reads
// the record's version at that moment, so edits landing between scheduling
// and firing are carried by the same flush.
type FlushFunc func(hour int)

// pendingFlush is the scheduler's ephemeral per-hour state. The generation
// lets an expired timer detect it has been superseded by a Reset that raced
// with its firing.
type pendingFlush struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler maintains at most one pending delayed-flush timer per hour key
// with reset-on-activity semantics. It holds no record data, only the
// hour-to-timer associations.
type Scheduler struct {
	mu      sync.Mutex
	window  time.Duration
	flush   FlushFunc
	pending map[int]pendingFlush
	gen     uint64
	closed  bool
}

// NewScheduler creates a scheduler with the given quiet window.
func NewScheduler(window time.Duration, flush FlushFunc) *Scheduler {
	return &Scheduler{
		window:  window,
		flush:   flush,
		pending: make(map[int]pendingFlush),
	}
}

// Reset cancels any pending timer for the hour and arms a fresh one. A key
// therefore flushes only after the window passes with no further edits.
func (s *Scheduler) Reset(hour int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if p, ok := s.pending[hour]; ok {
		p.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.pending[hour] = pendingFlush{
		timer: time.AfterFunc(s.window, func() { s.fire(hour, gen) }),
		gen:   gen,
	}
}

func (s *Scheduler) fire(hour int, gen uint64) {
	s.mu.Lock()
	p, ok := s.pending[hour]
	if s.closed || !ok || p.gen != gen {
		// Superseded by a newer Reset or cancelled while this timer was
		// already expiring.
		s.mu.Unlock()
		return
	}
	delete(s.pending, hour)
	s.mu.Unlock()

	util.LogDebugf("Debounce window elapsed for hour %d, flushing", hour)
	s.flush(hour)
}

// Cancel stops the pending timer for a single hour without firing it.
func (s *Scheduler) Cancel(hour int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[hour]; ok {
		p.timer.Stop()
		delete(s.pending, hour)
	}
}

// CancelAll stops every outstanding timer without firing and marks the
// scheduler closed. Used on view teardown; a closed scheduler ignores
// further Reset calls.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for hour, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, hour)
	}
	s.closed = true
}

// Pending returns the number of armed timers. Intended for tests and
// diagnostics.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
