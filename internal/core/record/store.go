package record

import (
	"errors"
	"fmt"
	"sync"

	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/util"
)

var (
	ErrHourOutOfRange = errors.New("hour out of range")
	ErrMoodOutOfRange = errors.New("mood out of range")
	ErrUnknownField   = errors.New("unknown field")
	ErrBadValue       = errors.New("bad value type")
)

// Store is the authoritative in-memory collection of one day's 24 hour
// records. All mutation goes through Apply, MarkSaving and ApplyOutcome;
// each operation is atomic with respect to the others.
type Store struct {
	mu      sync.RWMutex
	day     model.DayKey
	records [model.HoursPerDay]model.HourRecord

	// dirtyHook is invoked after every successful Apply, outside the lock.
	// The day session wires it to the debounce scheduler.
	dirtyHook func(hour int)
}

// NewStore creates a store for the given day with all 24 hours defaulted
// to empty Clean records.
func NewStore(day model.DayKey) *Store {
	s := &Store{day: day}
	s.reset()
	return s
}

// SetDirtyHook registers the callback notified on every edit. Must be set
// before the store is shared between goroutines.
func (s *Store) SetDirtyHook(fn func(hour int)) {
	s.dirtyHook = fn
}

// Day returns the immutable day key this store was opened for.
func (s *Store) Day() model.DayKey {
	return s.day
}

func (s *Store) reset() {
	for h := 0; h < model.HoursPerDay; h++ {
		s.records[h] = model.HourRecord{
			Hour:   h,
			Status: model.StatusClean,
		}
	}
}

// Load fills all 24 hours from a partial remote snapshot. Missing hours
// default to empty Clean records. Re-invocation for the same day resets the
// store to the snapshot, so Load is idempotent.
func (s *Store) Load(snapshot []model.HourUpsert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for _, up := range snapshot {
		if !model.ValidHour(up.Hour) {
			util.LogWarnf("Ignoring snapshot entry with hour %d outside [0,23]", up.Hour)
			continue
		}
		rec := &s.records[up.Hour]
		rec.Mood = up.Mood
		rec.Notes = up.Notes
	}
}

// Apply records a single-field edit: it increments the record's version,
// marks it Dirty and notifies the dirty hook. Out-of-range hours and moods
// are rejected before any mutation.
func (s *Store) Apply(hour int, field model.Field, value interface{}) (model.HourRecord, error) {
	if !model.ValidHour(hour) {
		return model.HourRecord{}, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	}

	s.mu.Lock()
	rec := &s.records[hour]

	switch field {
	case model.FieldMood:
		mood, ok := value.(*int)
		if !ok {
			s.mu.Unlock()
			return model.HourRecord{}, fmt.Errorf("%w: mood requires *int, got %T", ErrBadValue, value)
		}
		if !model.ValidMood(mood) {
			s.mu.Unlock()
			return model.HourRecord{}, fmt.Errorf("%w: %d", ErrMoodOutOfRange, *mood)
		}
		rec.Mood = mood
	case model.FieldNotes:
		notes, ok := value.(string)
		if !ok {
			s.mu.Unlock()
			return model.HourRecord{}, fmt.Errorf("%w: notes requires string, got %T", ErrBadValue, value)
		}
		rec.Notes = notes
	default:
		s.mu.Unlock()
		return model.HourRecord{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	rec.Version++
	rec.Status = model.StatusDirty
	updated := *rec
	s.mu.Unlock()

	if s.dirtyHook != nil {
		s.dirtyHook(hour)
	}
	return updated, nil
}

// Get returns a copy of the record for the given hour.
func (s *Store) Get(hour int) (model.HourRecord, error) {
	if !model.ValidHour(hour) {
		return model.HourRecord{}, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[hour], nil
}

// Snapshot returns a copy of all 24 records in hour order.
func (s *Store) Snapshot() []model.HourRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.HourRecord, model.HoursPerDay)
	copy(out, s.records[:])
	return out
}

// MarkSaving transitions the record to Saving, but only if its current
// version still equals the version the flush is being issued for. Returns
// whether the transition was applied.
func (s *Store) MarkSaving(hour int, version int64) bool {
	if !model.ValidHour(hour) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &s.records[hour]
	if rec.Version != version {
		return false
	}
	rec.Status = model.StatusSaving
	return true
}

// ApplyOutcome applies a flush result for the version that was sent. If the
// record has been edited since, the outcome is stale and silently discarded;
// the edit already re-armed the debounce cycle. Returns whether the outcome
// was applied.
func (s *Store) ApplyOutcome(hour int, version int64, outcome model.Outcome) bool {
	if !model.ValidHour(hour) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &s.records[hour]
	if rec.Version != version {
		util.LogDebugf("Discarding stale flush outcome for hour %d (sent version %d, current %d)",
			hour, version, rec.Version)
		return false
	}

	if outcome == model.OutcomeSuccess {
		rec.Status = model.StatusClean
	} else {
		rec.Status = model.StatusError
	}
	return true
}
