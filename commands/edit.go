package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/moodtide/moodtide/internal/application/day"
	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/data/lunar"
	"github.com/moodtide/moodtide/internal/data/remote"
	"github.com/moodtide/moodtide/internal/presentation/display"
	"github.com/moodtide/moodtide/internal/presentation/interaction"
	"github.com/moodtide/moodtide/internal/util"
)

var (
	editDebounceMs int
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit a day's hour records interactively",
	Long: `Opens the day in an interactive editor. Select an hour, set its mood
with the digit keys (0 means 10) and type notes in insert mode. Changes
auto-save after a brief pause; the per-row dot shows each hour's state:
green saved, yellow unsaved, cyan saving, red save failed.`,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().IntVar(&editDebounceMs, "debounce", 800,
		"Quiet window in milliseconds before an edited hour is saved")
}

func runEdit(cmd *cobra.Command, args []string) error {
	initLogging()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.DebounceWindow = time.Duration(editDebounceMs) * time.Millisecond
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	table := loadLunarTable()
	if table != nil {
		// The table file is regenerated externally; pick up new samples live.
		watcher, err := lunar.NewWatcher(table)
		if err != nil {
			util.LogWarnf("Lunar table watcher unavailable: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	session, err := day.NewSession(cfg, remote.NewClient(cfg.APIBaseURL), table)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()

	loadCtx, loadCancel := context.WithTimeout(ctx, 20*time.Second)
	session.Open(loadCtx)
	loadCancel()

	keyboard, err := interaction.NewKeyboardReader()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()

	editor := &dayEditor{
		session: session,
		view:    display.NewDayView(cfg.TimeFormat),
		state:   display.RenderState{Selected: initialHour(session.Day())},
	}
	return editor.run(ctx, keyboard)
}

// initialHour selects the current hour when editing today, otherwise the
// first row.
func initialHour(dayKey model.DayKey) int {
	if dayKey.ISO() == model.NewDayKey(time.Now()).ISO() {
		return time.Now().Hour()
	}
	return 0
}

// dayEditor is the interactive edit loop: keyboard events mutate the day
// session, a ticker plus the session's change hints drive re-rendering.
type dayEditor struct {
	session *day.Session
	view    *display.DayView
	state   display.RenderState
}

func (e *dayEditor) run(ctx context.Context, keyboard *interaction.KeyboardReader) error {
	fmt.Print(util.HideCursor)
	defer fmt.Print(util.ShowCursor)

	uiTicker := time.NewTicker(200 * time.Millisecond)
	defer uiTicker.Stop()

	e.render()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-uiTicker.C:
			e.render()

		case <-e.session.Changes():
			e.render()

		case keyEvent := <-keyboard.Events():
			if e.handleKey(keyEvent) {
				return nil
			}
			e.render()
		}
	}
}

func (e *dayEditor) render() {
	fmt.Print(util.ClearScreen + util.MoveCursorHome)
	fmt.Print(e.view.Render(e.session.Day(), e.session.Rows(), &e.state))
}

// handleKey processes one keyboard event; returns true to exit.
func (e *dayEditor) handleKey(event interaction.KeyEvent) bool {
	if e.state.InsertMode {
		return e.handleInsertKey(event)
	}

	switch event.Type {
	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q', 3: // 'q', 'Q', or Ctrl+C
			return true
		case 'j':
			e.moveSelection(1)
		case 'k':
			e.moveSelection(-1)
		case 'n':
			e.state.InsertMode = true
		case 'x':
			e.applyMood(nil)
		case '0':
			mood := 10
			e.applyMood(&mood)
		default:
			if event.Key >= '1' && event.Key <= '9' {
				mood := int(event.Key - '0')
				e.applyMood(&mood)
			}
		}
	case interaction.KeyDown:
		e.moveSelection(1)
	case interaction.KeyUp:
		e.moveSelection(-1)
	case interaction.KeyEscape:
		return true
	}
	return false
}

func (e *dayEditor) handleInsertKey(event interaction.KeyEvent) bool {
	switch event.Type {
	case interaction.KeyEscape, interaction.KeyEnter:
		e.state.InsertMode = false
	case interaction.KeyBackspace:
		notes := e.currentNotes()
		if notes != "" {
			runes := []rune(notes)
			e.applyNotes(string(runes[:len(runes)-1]))
		}
	case interaction.KeyChar:
		if event.Key == 3 { // Ctrl+C still quits in insert mode
			return true
		}
		if event.Key >= 32 {
			e.applyNotes(e.currentNotes() + string(event.Key))
		}
	}
	return false
}

func (e *dayEditor) moveSelection(delta int) {
	next := e.state.Selected + delta
	if next < 0 {
		next = 0
	}
	if next >= model.HoursPerDay {
		next = model.HoursPerDay - 1
	}
	e.state.Selected = next
}

func (e *dayEditor) currentNotes() string {
	return e.session.Rows()[e.state.Selected].Record.Notes
}

func (e *dayEditor) applyMood(mood *int) {
	if _, err := e.session.Edit(e.state.Selected, model.FieldMood, mood); err != nil {
		e.state.Message = err.Error()
		return
	}
	e.state.Message = ""
}

func (e *dayEditor) applyNotes(notes string) {
	if _, err := e.session.Edit(e.state.Selected, model.FieldNotes, notes); err != nil {
		e.state.Message = err.Error()
		return
	}
	e.state.Message = ""
}
