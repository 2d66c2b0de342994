package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtide/moodtide/internal/core/model"
)

func testDay(t *testing.T) model.DayKey {
	t.Helper()
	day, err := model.ParseDayKey("2025-06-01")
	require.NoError(t, err)
	return day
}

func intPtr(v int) *int {
	return &v
}

func TestNewStoreDefaultsAllHours(t *testing.T) {
	store := NewStore(testDay(t))

	records := store.Snapshot()
	require.Len(t, records, model.HoursPerDay)
	for h, rec := range records {
		assert.Equal(t, h, rec.Hour)
		assert.Nil(t, rec.Mood)
		assert.Equal(t, "", rec.Notes)
		assert.Equal(t, model.StatusClean, rec.Status)
		assert.Equal(t, int64(0), rec.Version)
	}
}

func TestLoadPartialSnapshot(t *testing.T) {
	store := NewStore(testDay(t))

	store.Load([]model.HourUpsert{
		{Hour: 9, Mood: intPtr(7), Notes: "morning run"},
		{Hour: 22, Notes: "late snack"},
		{Hour: 99, Notes: "ignored"},
	})

	rec, err := store.Get(9)
	require.NoError(t, err)
	assert.Equal(t, 7, *rec.Mood)
	assert.Equal(t, "morning run", rec.Notes)
	assert.Equal(t, model.StatusClean, rec.Status)

	rec, err = store.Get(22)
	require.NoError(t, err)
	assert.Nil(t, rec.Mood)
	assert.Equal(t, "late snack", rec.Notes)

	// Hours not in the snapshot stay defaulted
	rec, err = store.Get(0)
	require.NoError(t, err)
	assert.Nil(t, rec.Mood)
	assert.Equal(t, "", rec.Notes)
	assert.Equal(t, model.StatusClean, rec.Status)
}

func TestLoadIsIdempotent(t *testing.T) {
	store := NewStore(testDay(t))
	snapshot := []model.HourUpsert{{Hour: 3, Notes: "nap"}}

	store.Load(snapshot)
	first := store.Snapshot()
	store.Load(snapshot)
	second := store.Snapshot()

	assert.Equal(t, first, second)
}

func TestApplyEdit(t *testing.T) {
	store := NewStore(testDay(t))

	rec, err := store.Apply(9, model.FieldMood, intPtr(7))
	require.NoError(t, err)
	assert.Equal(t, 7, *rec.Mood)
	assert.Equal(t, model.StatusDirty, rec.Status)
	assert.Equal(t, int64(1), rec.Version)

	rec, err = store.Apply(9, model.FieldNotes, "long meeting")
	require.NoError(t, err)
	assert.Equal(t, "long meeting", rec.Notes)
	assert.Equal(t, 7, *rec.Mood)
	assert.Equal(t, int64(2), rec.Version)
}

func TestApplyClearsMoodWithNil(t *testing.T) {
	store := NewStore(testDay(t))

	_, err := store.Apply(5, model.FieldMood, intPtr(4))
	require.NoError(t, err)

	rec, err := store.Apply(5, model.FieldMood, (*int)(nil))
	require.NoError(t, err)
	assert.Nil(t, rec.Mood)
	assert.Equal(t, int64(2), rec.Version)
}

func TestApplyValidation(t *testing.T) {
	store := NewStore(testDay(t))

	tests := []struct {
		name    string
		hour    int
		field   model.Field
		value   interface{}
		wantErr error
	}{
		{"hour too low", -1, model.FieldMood, intPtr(5), ErrHourOutOfRange},
		{"hour too high", 24, model.FieldMood, intPtr(5), ErrHourOutOfRange},
		{"mood too low", 9, model.FieldMood, intPtr(0), ErrMoodOutOfRange},
		{"mood too high", 9, model.FieldMood, intPtr(11), ErrMoodOutOfRange},
		{"unknown field", 9, model.Field("color"), "blue", ErrUnknownField},
		{"mood wrong type", 9, model.FieldMood, "seven", ErrBadValue},
		{"notes wrong type", 9, model.FieldNotes, 7, ErrBadValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Apply(tt.hour, tt.field, tt.value)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing reached the store
	rec, err := store.Get(9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Version)
	assert.Equal(t, model.StatusClean, rec.Status)
}

func TestApplyNotifiesDirtyHook(t *testing.T) {
	store := NewStore(testDay(t))

	var notified []int
	store.SetDirtyHook(func(hour int) {
		notified = append(notified, hour)
	})

	_, err := store.Apply(9, model.FieldNotes, "a")
	require.NoError(t, err)
	_, err = store.Apply(9, model.FieldNotes, "ab")
	require.NoError(t, err)
	_, err = store.Apply(14, model.FieldMood, intPtr(3))
	require.NoError(t, err)

	assert.Equal(t, []int{9, 9, 14}, notified)

	// Rejected edits do not notify
	_, err = store.Apply(9, model.FieldMood, intPtr(0))
	assert.Error(t, err)
	assert.Len(t, notified, 3)
}

func TestMarkSavingVersionGate(t *testing.T) {
	store := NewStore(testDay(t))

	_, err := store.Apply(3, model.FieldNotes, "x")
	require.NoError(t, err)

	// Stale version is a no-op
	assert.False(t, store.MarkSaving(3, 0))
	rec, _ := store.Get(3)
	assert.Equal(t, model.StatusDirty, rec.Status)

	assert.True(t, store.MarkSaving(3, 1))
	rec, _ = store.Get(3)
	assert.Equal(t, model.StatusSaving, rec.Status)

	assert.False(t, store.MarkSaving(-1, 1))
}

func TestApplyOutcome(t *testing.T) {
	store := NewStore(testDay(t))

	_, err := store.Apply(3, model.FieldNotes, "x")
	require.NoError(t, err)
	store.MarkSaving(3, 1)

	assert.True(t, store.ApplyOutcome(3, 1, model.OutcomeSuccess))
	rec, _ := store.Get(3)
	assert.Equal(t, model.StatusClean, rec.Status)
	assert.Equal(t, "x", rec.Notes)
}

func TestApplyOutcomeFailure(t *testing.T) {
	store := NewStore(testDay(t))

	_, err := store.Apply(7, model.FieldMood, intPtr(2))
	require.NoError(t, err)
	store.MarkSaving(7, 1)

	assert.True(t, store.ApplyOutcome(7, 1, model.OutcomeFailure))
	rec, _ := store.Get(7)
	assert.Equal(t, model.StatusError, rec.Status)

	// Any further edit leaves Error behind
	rec, err = store.Apply(7, model.FieldMood, intPtr(5))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDirty, rec.Status)
}

func TestApplyOutcomeDiscardsStaleResponse(t *testing.T) {
	store := NewStore(testDay(t))

	_, err := store.Apply(3, model.FieldNotes, "first")
	require.NoError(t, err)
	store.MarkSaving(3, 1)

	// A newer edit lands while the flush for version 1 is outstanding
	rec, err := store.Apply(3, model.FieldNotes, "second")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, model.StatusDirty, rec.Status)

	// The stale response must not touch status or content
	assert.False(t, store.ApplyOutcome(3, 1, model.OutcomeSuccess))
	rec, _ = store.Get(3)
	assert.Equal(t, model.StatusDirty, rec.Status)
	assert.Equal(t, "second", rec.Notes)
	assert.Equal(t, int64(2), rec.Version)
}

func TestConcurrentEditsDifferentHours(t *testing.T) {
	store := NewStore(testDay(t))

	done := make(chan struct{})
	for h := 0; h < model.HoursPerDay; h++ {
		go func(hour int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 50; i++ {
				_, err := store.Apply(hour, model.FieldNotes, "tick")
				assert.NoError(t, err)
			}
		}(h)
	}

	for h := 0; h < model.HoursPerDay; h++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for concurrent edits")
		}
	}

	for _, rec := range store.Snapshot() {
		assert.Equal(t, int64(50), rec.Version)
		assert.Equal(t, model.StatusDirty, rec.Status)
	}
}
