package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/core/record"
	"github.com/moodtide/moodtide/internal/util"
)

// RemoteStore is the persistence collaborator the engine flushes to. The
// HTTP implementation lives in internal/data/remote.
type RemoteStore interface {
	FetchDay(ctx context.Context, day model.DayKey) ([]model.HourUpsert, error)
	SaveHour(ctx context.Context, day model.DayKey, hour int, mood *int, notes string) error
}

// flight tracks the request lifecycle of one hour key. At most one network
// flush per hour is outstanding; a firing that arrives while one is in
// flight is deferred and re-issued when it completes.
type flight struct {
	active bool
	rerun  bool
}

// Engine owns the request/response lifecycle between the record store and
// the remote store. Every flush carries the version it was issued for, and
// outcomes are applied conditionally on version match, so responses that
// arrive after a newer edit are self-discarding.
type Engine struct {
	store  *record.Store
	remote RemoteStore

	mu      sync.Mutex
	flights map[int]*flight

	// discard is set on view teardown: in-flight flushes run to completion
	// but their results are ignored.
	discard atomic.Bool
	wg      sync.WaitGroup
}

// NewEngine creates a sync engine for the given store and remote.
func NewEngine(store *record.Store, remote RemoteStore) *Engine {
	return &Engine{
		store:   store,
		remote:  remote,
		flights: make(map[int]*flight),
	}
}

// Load fetches the day snapshot and populates the record store. On failure
// the store keeps its defaulted Clean records, so the view degrades to
// "nothing saved yet" instead of becoming unusable.
func (e *Engine) Load(ctx context.Context) error {
	snapshot, err := e.remote.FetchDay(ctx, e.store.Day())
	if err != nil {
		return fmt.Errorf("day load failed: %w", err)
	}
	e.store.Load(snapshot)
	return nil
}

// Flush issues one persistence request for the hour's content as of now.
// It marks the record Saving for the version being sent and applies the
// outcome for that same version when the request completes. Flushes for
// different hours are independent and may overlap.
func (e *Engine) Flush(hour int) {
	if !model.ValidHour(hour) {
		return
	}
	if e.discard.Load() {
		return
	}

	e.mu.Lock()
	fl, ok := e.flights[hour]
	if !ok {
		fl = &flight{}
		e.flights[hour] = fl
	}
	if fl.active {
		// A request for an older version is still outstanding. Its response
		// will be discarded on version mismatch; re-issue once it returns.
		fl.rerun = true
		e.mu.Unlock()
		return
	}
	fl.active = true
	e.mu.Unlock()

	rec, err := e.store.Get(hour)
	if err != nil {
		e.finish(hour, fl)
		return
	}
	version := rec.Version

	if !e.store.MarkSaving(hour, version) {
		// Superseded before the request was even sent; the newer edit has
		// already re-armed its own timer.
		e.finish(hour, fl)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		err := e.remote.SaveHour(context.Background(), e.store.Day(), hour, rec.Mood, rec.Notes)
		outcome := model.OutcomeSuccess
		if err != nil {
			outcome = model.OutcomeFailure
			util.LogWarnf("Flush failed for hour %d version %d: %v", hour, version, err)
		}

		if !e.discard.Load() {
			if applied := e.store.ApplyOutcome(hour, version, outcome); applied && err == nil {
				util.LogDebugf("Hour %d saved at version %d", hour, version)
			}
		}
		e.finish(hour, fl)
	}()
}

// finish clears the in-flight marker and re-issues a deferred flush if one
// accumulated while the request was outstanding.
func (e *Engine) finish(hour int, fl *flight) {
	e.mu.Lock()
	fl.active = false
	rerun := fl.rerun
	fl.rerun = false
	e.mu.Unlock()

	if rerun && !e.discard.Load() {
		e.Flush(hour)
	}
}

// Discard makes the engine ignore the results of any in-flight or future
// flushes. Called on view teardown; the network calls themselves are never
// cancelled.
func (e *Engine) Discard() {
	e.discard.Store(true)
}

// Wait blocks until all in-flight flush goroutines have returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}
