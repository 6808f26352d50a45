package cli

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/logging"
	"github.com/tessro/needle/internal/tui"
)

var (
	tuiRefresh int
	tuiLink    string
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch the player",
	Long: `Launch the interactive terminal player.

The entry screen accepts the password or the key sequence. Once
unlocked the player shows:
  • Now Playing - current track, progress, heard count
  • Tracks - the searchable catalog (secret tier)
  • History - recently played tracks

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search
  Space        Play/Pause
  ←/→          Seek
  n            Next track
  p            Previous track
  d            Download selected track
  l            Copy a link to the current track
  +/-          Volume up/down
  Tab          Switch panel`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "refresh interval in milliseconds (default: tui.refresh_interval)")
	tuiCmd.Flags().StringVar(&tuiLink, "link", "", "start on a shared track link")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal, so logs go to a file.
	if cfg.Log.File == "" {
		cfg.Log.File = cfg.TUILogPath()
	}

	switch cfg.TUI.Theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}

	d, err := openDeps(nil)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	refresh := tuiRefresh
	if refresh <= 0 {
		refresh = cfg.TUI.RefreshInterval
	}

	p := d.player()
	defer func() { _ = p.Close() }()

	app := &tui.App{
		Controller:  d.controller(),
		Executor:    d.executor(p),
		Player:      p,
		Fetcher:     d.client,
		Downloader:  d.client,
		DownloadDir: cfg.Downloads.Dir,
		RefreshRate: time.Duration(refresh) * time.Millisecond,
		Logger:      logging.With(d.logger, "component", "tui"),
	}
	return tui.Run(app, tuiLink)
}
