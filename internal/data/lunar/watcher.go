package lunar

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/moodtide/moodtide/internal/util"
)

// Watcher reloads the lunar table when its backing file is rewritten. The
// file is regenerated externally on a schedule, so the running client picks
// up fresh samples without a restart.
type Watcher struct {
	watcher *fsnotify.Watcher
	table   *Table
	stop    chan struct{}
}

// NewWatcher starts watching the directory containing the table's backing
// file. Watching the directory rather than the file survives the
// write-then-rename pattern generators commonly use.
func NewWatcher(table *Table) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fw.Add(filepath.Dir(table.Path())); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		table:   table,
		stop:    make(chan struct{}),
	}
	go w.processEvents()
	return w, nil
}

func (w *Watcher) processEvents() {
	target := filepath.Clean(w.table.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			util.LogInfof("Lunar table changed on disk (%s), reloading", event.Op)
			if err := w.table.Reload(); err != nil {
				// Keep serving the previous index; a partial write may settle
				// on the next event.
				util.LogWarnf("Lunar table reload failed: %v", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			util.LogErrorf("Lunar table watch error: %v", err)

		case <-w.stop:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}
