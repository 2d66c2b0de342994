package lunar

import (
	"fmt"
	"os"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/util"
)

// hourKeyLen is the length of the hour-truncated timestamp prefix,
// e.g. "2025-06-01T09".
const hourKeyLen = 13

// Table is the static, pre-loaded collection of hourly lunar samples. It is
// read-only for the rest of the program; Reload swaps the whole index when
// the backing file is regenerated.
type Table struct {
	path string

	mu     sync.RWMutex
	byHour map[string]model.LunarSample
}

// LoadTable reads the lunar sample file (a JSON array at hourly resolution)
// and indexes it by hour-truncated timestamp prefix.
func LoadTable(path string) (*Table, error) {
	t := &Table{
		path:   path,
		byHour: make(map[string]model.LunarSample),
	}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads the backing file and replaces the index atomically.
func (t *Table) Reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("failed to read lunar table %s: %w", t.path, err)
	}

	var samples []model.LunarSample
	if err := sonic.Unmarshal(data, &samples); err != nil {
		return fmt.Errorf("failed to parse lunar table %s: %w", t.path, err)
	}

	byHour := make(map[string]model.LunarSample, len(samples))
	skipped := 0
	for _, s := range samples {
		if len(s.Datetime) < hourKeyLen {
			skipped++
			continue
		}
		byHour[s.Datetime[:hourKeyLen]] = s
	}
	if skipped > 0 {
		util.LogWarnf("Skipped %d lunar samples with malformed timestamps", skipped)
	}

	t.mu.Lock()
	t.byHour = byHour
	t.mu.Unlock()

	util.LogDebugf("Lunar table loaded: %d hourly samples from %s", len(byHour), t.path)
	return nil
}

// Lookup returns the sample for the given day and hour, if one exists.
// Absence is a normal case: hours outside the generated range simply carry
// no annotation.
func (t *Table) Lookup(day model.DayKey, hour int) (model.LunarSample, bool) {
	if t == nil || !model.ValidHour(hour) {
		return model.LunarSample{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.byHour[day.HourPrefix(hour)]
	return s, ok
}

// Len returns the number of indexed hourly samples.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byHour)
}

// Path returns the backing file path.
func (t *Table) Path() string {
	return t.path
}
