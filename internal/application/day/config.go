package day

import (
	"fmt"
	"time"

	"github.com/moodtide/moodtide/internal/core/model"
)

// Config contains configuration for an open day view.
type Config struct {
	// Remote store settings
	APIBaseURL string

	// The day being edited
	Date model.DayKey

	// Quiet window after the last edit to an hour before it is flushed
	DebounceWindow time.Duration

	// Optional lunar annotation table (empty disables enrichment)
	LunarTablePath string

	// Display settings
	TimeFormat string
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:8000"
	}
	if c.Date.IsZero() {
		c.Date = model.NewDayKey(time.Now())
	}
	if c.DebounceWindow == 0 {
		c.DebounceWindow = 800 * time.Millisecond
	}
	if c.DebounceWindow < 100*time.Millisecond || c.DebounceWindow > 10*time.Second {
		return fmt.Errorf("debounce window %s outside [100ms, 10s]", c.DebounceWindow)
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "24h"
	}
	if c.TimeFormat != "12h" && c.TimeFormat != "24h" {
		return fmt.Errorf("invalid time format %q: must be either '12h' or '24h'", c.TimeFormat)
	}
	return nil
}
