package model

import (
	"fmt"
	"time"
)

// HoursPerDay is the number of hour records in one day view.
const HoursPerDay = 24

// Status represents the persistence state of a single hour record.
type Status int

const (
	// StatusClean means local content matches (or is believed to match) the remote store.
	StatusClean Status = iota
	// StatusDirty means the record has local edits not yet flushed.
	StatusDirty
	// StatusSaving means exactly one flush for the record's current version is in flight.
	StatusSaving
	// StatusError means the last flush for the current version failed.
	StatusError
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusDirty:
		return "dirty"
	case StatusSaving:
		return "saving"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Field identifies which part of an hour record an edit targets.
type Field string

const (
	FieldMood  Field = "mood"
	FieldNotes Field = "notes"
)

// Outcome is the result of a completed flush request.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// HourRecord is one of the 24 per-hour entries of an open day.
// Version increments on every local edit; flush responses carry the version
// they were issued for so stale responses can be discarded.
type HourRecord struct {
	Hour    int
	Mood    *int // nil means no mood recorded
	Notes   string
	Status  Status
	Version int64
}

// HourUpsert is the partial record shape returned by the remote store on load.
type HourUpsert struct {
	Hour  int
	Mood  *int
	Notes string
}

// LunarSample is a read-only astronomical annotation for one hour.
// It is externally generated and never written by this client.
type LunarSample struct {
	Datetime     string  `json:"datetime"`
	Illumination float64 `json:"illumination"`
	WaxingWaning string  `json:"waxing_waning"`
	DistanceKM   float64 `json:"distance_km"`
	Approaching  bool    `json:"approaching"`
}

// DayKey identifies the calendar date whose 24 records are being edited.
// It is immutable once a day view is opened.
type DayKey struct {
	t time.Time
}

const dayKeyLayout = "2006-01-02"

// NewDayKey truncates t to its calendar date in UTC.
func NewDayKey(t time.Time) DayKey {
	u := t.UTC()
	return DayKey{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDayKey parses an ISO date string (YYYY-MM-DD).
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.Parse(dayKeyLayout, s)
	if err != nil {
		return DayKey{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayKey{t: t}, nil
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d DayKey) ISO() string {
	return d.t.Format(dayKeyLayout)
}

// HourPrefix returns the hour-truncated timestamp prefix used to match
// lunar samples, e.g. "2025-06-01T09".
func (d DayKey) HourPrefix(hour int) string {
	return fmt.Sprintf("%sT%02d", d.ISO(), hour)
}

// Time returns the midnight instant of the day in UTC.
func (d DayKey) Time() time.Time {
	return d.t
}

// IsZero reports whether the key has not been set.
func (d DayKey) IsZero() bool {
	return d.t.IsZero()
}

// ValidHour reports whether h addresses one of the day's 24 records.
func ValidHour(h int) bool {
	return h >= 0 && h < HoursPerDay
}

// ValidMood reports whether m is an acceptable mood value. A nil mood
// (no mood recorded) is always valid.
func ValidMood(m *int) bool {
	return m == nil || (*m >= 1 && *m <= 10)
}
