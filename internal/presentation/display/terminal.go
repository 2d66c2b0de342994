package display

import (
	"fmt"
	"strings"

	"github.com/moodtide/moodtide/internal/application/day"
	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/util"
)

const (
	hourColWidth  = 7
	moodColWidth  = 4
	lunarColWidth = 14
	minNotesWidth = 10
)

// RenderState carries the interaction state the editor overlays on the
// day table. A nil state renders the plain one-shot view.
type RenderState struct {
	Selected   int // -1 for no selection
	InsertMode bool
	Message    string
}

// DayView renders the 24-row day table with per-hour status indicators.
type DayView struct {
	timeFormat string
}

// NewDayView creates a renderer using the given time format ("12h" or "24h").
func NewDayView(timeFormat string) *DayView {
	return &DayView{timeFormat: timeFormat}
}

// Render builds the complete table for one day.
func (v *DayView) Render(dayKey model.DayKey, rows []day.Row, state *RenderState) string {
	width := util.TerminalWidth()
	notesWidth := width - hourColWidth - moodColWidth - lunarColWidth - 10
	if notesWidth < minNotesWidth {
		notesWidth = minNotesWidth
	}

	var b strings.Builder

	b.WriteString(util.ColorBold)
	b.WriteString(dayKey.Time().Format("Monday, 2 January 2006"))
	b.WriteString(util.ColorReset)
	b.WriteString("\n\n")

	header := fmt.Sprintf("  %s %s %s %s  %s",
		util.PadString("Hour", hourColWidth, true),
		util.PadString("Mood", moodColWidth, true),
		util.PadString("Notes", notesWidth, true),
		util.PadString("Moon", lunarColWidth, true),
		"St")
	b.WriteString(util.ColorDim + header + util.ColorReset + "\n")

	for _, row := range rows {
		selected := state != nil && state.Selected == row.Record.Hour

		marker := "  "
		if selected {
			marker = "> "
		}

		mood := "-"
		if row.Record.Mood != nil {
			mood = fmt.Sprintf("%d", *row.Record.Mood)
		}

		notes := util.TruncateString(strings.ReplaceAll(row.Record.Notes, "\n", " "), notesWidth)
		if selected && state.InsertMode {
			notes += "_"
		}

		line := fmt.Sprintf("%s%s %s %s %s  %s",
			marker,
			util.PadString(v.hourLabel(row.Record.Hour), hourColWidth, true),
			util.PadString(mood, moodColWidth, true),
			util.PadString(notes, notesWidth, true),
			util.PadString(lunarLabel(row.Lunar), lunarColWidth, true),
			statusDot(row.Record.Status))

		if selected {
			b.WriteString(util.ColorBold + line + util.ColorReset)
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if state != nil {
		b.WriteString("\n")
		if state.InsertMode {
			b.WriteString(util.ColorCyan + "-- NOTES -- type to edit, ESC to stop" + util.ColorReset)
		} else {
			b.WriteString(util.ColorDim + "j/k move · 1-9/0 mood · x clear mood · n notes · q quit" + util.ColorReset)
		}
		if state.Message != "" {
			b.WriteString("  " + state.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (v *DayView) hourLabel(hour int) string {
	if v.timeFormat == "12h" {
		suffix := "am"
		h := hour
		switch {
		case hour == 0:
			h = 12
		case hour == 12:
			suffix = "pm"
		case hour > 12:
			h = hour - 12
			suffix = "pm"
		}
		return fmt.Sprintf("%2d:00%s", h, suffix)
	}
	return fmt.Sprintf("%02d:00", hour)
}

// statusDot maps a persistence status to its colored indicator, matching
// the green/yellow/cyan/red convention of the row status lights.
func statusDot(s model.Status) string {
	switch s {
	case model.StatusClean:
		return util.ColorGreen + "●" + util.ColorReset
	case model.StatusDirty:
		return util.ColorYellow + "●" + util.ColorReset
	case model.StatusSaving:
		return util.ColorCyan + "●" + util.ColorReset
	case model.StatusError:
		return util.ColorRed + "●" + util.ColorReset
	default:
		return " "
	}
}

// lunarLabel formats the optional enrichment annotation, e.g. "🌖 73% wan".
func lunarLabel(sample *model.LunarSample) string {
	if sample == nil {
		return ""
	}
	phase := "wax"
	if sample.WaxingWaning == "waning" {
		phase = "wan"
	}
	return fmt.Sprintf("%s %.0f%% %s", phaseGlyph(sample), sample.Illumination, phase)
}

// phaseGlyph picks a moon glyph from illumination and direction.
func phaseGlyph(sample *model.LunarSample) string {
	waxing := sample.WaxingWaning != "waning"
	ill := sample.Illumination
	switch {
	case ill < 5:
		return "🌑"
	case ill < 45:
		if waxing {
			return "🌒"
		}
		return "🌘"
	case ill < 55:
		if waxing {
			return "🌓"
		}
		return "🌗"
	case ill < 95:
		if waxing {
			return "🌔"
		}
		return "🌖"
	default:
		return "🌕"
	}
}
