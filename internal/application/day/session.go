package day

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/moodtide/moodtide/internal/core/debounce"
	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/core/record"
	"github.com/moodtide/moodtide/internal/core/syncer"
	"github.com/moodtide/moodtide/internal/data/lunar"
	"github.com/moodtide/moodtide/internal/util"
)

// ErrSessionClosed is returned by Edit after the day view has been torn down.
var ErrSessionClosed = errors.New("day session closed")

// Row is the read model exposed to the view layer: one hour's content and
// status joined with its optional lunar annotation.
type Row struct {
	Record model.HourRecord
	Lunar  *model.LunarSample
}

// Session wires the record store, debounce scheduler and sync engine for
// one open day. Edits flow through Edit; the view renders Rows and gets a
// change hint on Changes.
type Session struct {
	config    *Config
	store     *record.Store
	scheduler *debounce.Scheduler
	engine    *syncer.Engine
	lunar     *lunar.Table

	changes chan struct{}
	closed  atomic.Bool
}

// NewSession creates a session for cfg.Date. The lunar table may be nil,
// disabling enrichment.
func NewSession(cfg *Config, remote syncer.RemoteStore, table *lunar.Table) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Session{
		config:  cfg,
		lunar:   table,
		changes: make(chan struct{}, 1),
	}

	s.store = record.NewStore(cfg.Date)
	s.engine = syncer.NewEngine(s.store, remote)
	s.scheduler = debounce.NewScheduler(cfg.DebounceWindow, func(hour int) {
		s.engine.Flush(hour)
		s.notify()
	})
	// Every edit re-arms the hour's quiet window.
	s.store.SetDirtyHook(func(hour int) {
		s.scheduler.Reset(hour)
		s.notify()
	})

	return s, nil
}

// Open loads the day snapshot from the remote store. A load failure is
// recovered locally: the 24 records stay defaulted to empty Clean rows and
// the view remains usable, so no error is surfaced.
func (s *Session) Open(ctx context.Context) {
	if err := s.engine.Load(ctx); err != nil {
		util.LogWarnf("Falling back to empty day %s: %v", s.config.Date.ISO(), err)
		return
	}
	util.LogInfof("Opened day %s", s.config.Date.ISO())
	s.notify()
}

// Edit applies a single-field edit to one hour. Validation failures are
// returned to the caller and never reach the store or the network.
func (s *Session) Edit(hour int, field model.Field, value interface{}) (model.HourRecord, error) {
	if s.closed.Load() {
		return model.HourRecord{}, ErrSessionClosed
	}
	return s.store.Apply(hour, field, value)
}

// Day returns the immutable day key of this session.
func (s *Session) Day() model.DayKey {
	return s.config.Date
}

// Rows returns the current read model in hour order.
func (s *Session) Rows() []Row {
	records := s.store.Snapshot()
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{Record: rec}
		if sample, ok := s.lunar.Lookup(s.config.Date, rec.Hour); ok {
			rows[i].Lunar = &sample
		}
	}
	return rows
}

// Changes returns a channel that receives a hint whenever the read model
// may have changed. The view combines it with a render ticker, so hints may
// be coalesced.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Close tears the day view down: all pending timers are cancelled without
// firing and in-flight flushes complete with their results discarded.
// Records left Dirty stay Dirty.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.scheduler.CancelAll()
	s.engine.Discard()
	util.LogInfof("Closed day %s", s.config.Date.ISO())
}
