package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moodtide/moodtide/internal/application/day"
	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/data/lunar"
	"github.com/moodtide/moodtide/internal/data/remote"
	"github.com/moodtide/moodtide/internal/presentation/display"
	"github.com/moodtide/moodtide/internal/util"
)

var (
	// Logging related
	debug bool

	// Remote store
	apiBaseURL string

	// Day selection and display
	dateStr    string
	timeFormat string

	// Enrichment
	moonDataPath string

	rootCmd = &cobra.Command{
		Use:   "moodtide [flags]",
		Short: "Per-hour mood journal with auto-saving day editor",
		Long: `moodtide is a command-line mood journal. Each day has 24 hour records
(mood 1-10 plus free-text notes) kept in a remote store; edits auto-save
after a brief pause in typing, with a per-hour status indicator.

Examples:
  moodtide                          # Show today's records
  moodtide --date 2025-06-01        # Show a specific day
  moodtide edit                     # Edit today interactively
  moodtide edit --date 2025-06-01   # Edit a specific day`,
		RunE: runView,
	}
)

const (
	defaultLogFile  = "~/.moodtide/logs/app.log"
	defaultMoonData = "~/.moodtide/moon_data.json"
	defaultAPIBase  = "http://localhost:8000"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", defaultAPIBase,
		"Base URL of the remote day-record store")
	rootCmd.PersistentFlags().StringVar(&dateStr, "date", "",
		"Day to open (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().StringVar(&moonDataPath, "moon-data", defaultMoonData,
		"Lunar sample table path (missing file disables annotations)")
	rootCmd.PersistentFlags().StringVar(&timeFormat, "time-format", "24h",
		"Time format (12h or 24h)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runView(cmd *cobra.Command, args []string) error {
	initLogging()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	table := loadLunarTable()
	session, err := day.NewSession(cfg, remote.NewClient(cfg.APIBaseURL), table)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	session.Open(ctx)

	view := display.NewDayView(cfg.TimeFormat)
	fmt.Print(view.Render(session.Day(), session.Rows(), nil))
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)
}

func buildConfig() (*day.Config, error) {
	cfg := &day.Config{
		APIBaseURL:     apiBaseURL,
		LunarTablePath: expandPath(moonDataPath),
		TimeFormat:     timeFormat,
	}
	if dateStr != "" {
		date, err := model.ParseDayKey(dateStr)
		if err != nil {
			return nil, err
		}
		cfg.Date = date
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadLunarTable loads the annotation table if the file exists. A missing
// or unreadable table only disables enrichment; the day view still works.
func loadLunarTable() *lunar.Table {
	path := expandPath(moonDataPath)
	if _, err := os.Stat(path); err != nil {
		util.LogDebugf("No lunar table at %s, annotations disabled", path)
		return nil
	}
	table, err := lunar.LoadTable(path)
	if err != nil {
		util.LogWarnf("Failed to load lunar table: %v", err)
		return nil
	}
	return table
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
