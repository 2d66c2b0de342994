package day

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/data/lunar"
)

type savedHour struct {
	Hour  int
	Mood  *int
	Notes string
}

type fakeRemote struct {
	mu       sync.Mutex
	snapshot []model.HourUpsert
	fetchErr error
	saveErr  error
	saves    []savedHour
}

func (f *fakeRemote) FetchDay(ctx context.Context, day model.DayKey) ([]model.HourUpsert, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeRemote) SaveHour(ctx context.Context, day model.DayKey, hour int, mood *int, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, savedHour{Hour: hour, Mood: mood, Notes: notes})
	return f.saveErr
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeRemote) lastSave() savedHour {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

func intPtr(v int) *int {
	return &v
}

func newTestSession(t *testing.T, remote *fakeRemote, table *lunar.Table) *Session {
	t.Helper()
	date, err := model.ParseDayKey("2025-06-01")
	require.NoError(t, err)

	cfg := &Config{
		Date:           date,
		DebounceWindow: 100 * time.Millisecond,
	}
	session, err := NewSession(cfg, remote, table)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func statusOf(s *Session, hour int) model.Status {
	return s.Rows()[hour].Record.Status
}

func TestOpenPopulatesRows(t *testing.T) {
	remote := &fakeRemote{
		snapshot: []model.HourUpsert{{Hour: 9, Mood: intPtr(7), Notes: "run"}},
	}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	rows := session.Rows()
	require.Len(t, rows, model.HoursPerDay)
	assert.Equal(t, 7, *rows[9].Record.Mood)
	assert.Equal(t, "run", rows[9].Record.Notes)
	for _, row := range rows {
		assert.Equal(t, model.StatusClean, row.Record.Status)
	}
}

func TestOpenFailureKeepsViewUsable(t *testing.T) {
	remote := &fakeRemote{fetchErr: errors.New("remote down")}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	rows := session.Rows()
	require.Len(t, rows, model.HoursPerDay)
	for _, row := range rows {
		assert.Equal(t, model.StatusClean, row.Record.Status)
		assert.Nil(t, row.Record.Mood)
		assert.Equal(t, "", row.Record.Notes)
	}

	// Editing still works after the failed load
	_, err := session.Edit(9, model.FieldNotes, "still here")
	assert.NoError(t, err)
}

func TestDebouncedEditCoalescesIntoOneSave(t *testing.T) {
	remote := &fakeRemote{}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	// Edit hour 9's mood to 7, then again to 9 before the window elapses
	_, err := session.Edit(9, model.FieldMood, intPtr(7))
	require.NoError(t, err)
	assert.Equal(t, model.StatusDirty, statusOf(session, 9))

	time.Sleep(30 * time.Millisecond)
	_, err = session.Edit(9, model.FieldMood, intPtr(9))
	require.NoError(t, err)

	// Exactly one save goes out, carrying the last edit's content
	assert.Eventually(t, func() bool {
		return statusOf(session, 9) == model.StatusClean
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, remote.saveCount())
	saved := remote.lastSave()
	assert.Equal(t, 9, saved.Hour)
	assert.Equal(t, 9, *saved.Mood)

	// And no trailing second save
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 1, remote.saveCount())
}

func TestEditRoundTrip(t *testing.T) {
	remote := &fakeRemote{}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	_, err := session.Edit(14, model.FieldNotes, "x")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return statusOf(session, 14) == model.StatusClean
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "x", session.Rows()[14].Record.Notes)
	assert.Equal(t, "x", remote.lastSave().Notes)
}

func TestSaveFailureShowsPerHourError(t *testing.T) {
	remote := &fakeRemote{saveErr: errors.New("boom")}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	_, err := session.Edit(6, model.FieldMood, intPtr(2))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return statusOf(session, 6) == model.StatusError
	}, 2*time.Second, 10*time.Millisecond)

	// Other hours are untouched
	assert.Equal(t, model.StatusClean, statusOf(session, 7))

	// No automatic retry; editing again re-arms the cycle
	assert.Equal(t, 1, remote.saveCount())
	_, err = session.Edit(6, model.FieldMood, intPtr(3))
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return remote.saveCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseCancelsPendingFlushes(t *testing.T) {
	remote := &fakeRemote{}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	_, err := session.Edit(9, model.FieldNotes, "unsaved")
	require.NoError(t, err)
	session.Close()

	// The pending timer never fires and the record stays Dirty, not
	// silently Clean
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, remote.saveCount())
	assert.Equal(t, model.StatusDirty, statusOf(session, 9))

	_, err = session.Edit(9, model.FieldNotes, "too late")
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestValidationErrorDoesNotSchedule(t *testing.T) {
	remote := &fakeRemote{}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	_, err := session.Edit(9, model.FieldMood, intPtr(12))
	assert.Error(t, err)

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 0, remote.saveCount())
	assert.Equal(t, model.StatusClean, statusOf(session, 9))
}

func TestChangesHint(t *testing.T) {
	remote := &fakeRemote{}
	session := newTestSession(t, remote, nil)
	session.Open(context.Background())

	// Drain any hint from Open
	select {
	case <-session.Changes():
	default:
	}

	_, err := session.Edit(9, model.FieldNotes, "ping")
	require.NoError(t, err)

	select {
	case <-session.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change hint after an edit")
	}
}

func TestRowsJoinLunarSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moon_data.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`[{"datetime": "2025-06-01T09:00:00+00:00", "illumination": 73.4, "waxing_waning": "waxing", "distance_km": 384400, "approaching": true}]`), 0644))
	table, err := lunar.LoadTable(path)
	require.NoError(t, err)

	session := newTestSession(t, &fakeRemote{}, table)
	session.Open(context.Background())

	rows := session.Rows()
	require.NotNil(t, rows[9].Lunar)
	assert.Equal(t, 73.4, rows[9].Lunar.Illumination)
	assert.Nil(t, rows[10].Lunar)
}
