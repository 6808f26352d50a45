package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/analytics"
)

var (
	eventsFollow    bool
	eventsLast      int
	eventsNoEmoji   bool
	eventsTimestamp bool
	eventsFormat    string
	eventsInterval  time.Duration
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"tail"},
	Short:   "Show listening events",
	Long: `Prints events from the local analytics log.

Events recorded:
  - Logins and unlocks
  - Plays, completions and skips
  - Pause/Resume
  - Searches and downloads

Template fields: {{.Type}} {{.Emoji}} {{.Time}} {{.Artist}} {{.Title}}
{{.Album}} {{.TrackID}} {{.Session}}`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "F", false, "keep printing new events")
	eventsCmd.Flags().IntVarP(&eventsLast, "last", "n", 10, "show the last n events (0 for all)")
	eventsCmd.Flags().BoolVar(&eventsNoEmoji, "no-emoji", false, "disable emoji output")
	eventsCmd.Flags().BoolVarP(&eventsTimestamp, "timestamp", "t", false, "show timestamps")
	eventsCmd.Flags().StringVarP(&eventsFormat, "format", "f", "", "custom format template")
	eventsCmd.Flags().DurationVarP(&eventsInterval, "interval", "i", time.Second, "poll interval")

	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	if cfg.Analytics.Disabled {
		return fmt.Errorf("analytics disabled in config")
	}
	path := cfg.AnalyticsPath()

	formatter := analytics.NewFormatter(
		analytics.WithEmoji(!eventsNoEmoji),
		analytics.WithTimestamp(eventsTimestamp),
		analytics.WithTemplate(eventsFormat),
	)

	events, err := analytics.ReadAll(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read events: %w", err)
	}
	if eventsLast > 0 && len(events) > eventsLast {
		events = events[len(events)-eventsLast:]
	}

	emit := func(e analytics.Event) error {
		if JSONOutput() {
			return printJSON(e)
		}
		fmt.Println(formatter.Format(e))
		return nil
	}

	for _, e := range events {
		if err := emit(e); err != nil {
			return err
		}
	}
	if !eventsFollow {
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	follower := analytics.NewFollower(path, eventsInterval, false)

	errCh := make(chan error, 1)
	go func() {
		errCh <- follower.Start(ctx)
	}()

	for {
		select {
		case e, ok := <-follower.Events():
			if !ok {
				return waitFollower(errCh)
			}
			if err := emit(e); err != nil {
				return err
			}
		case err := <-errCh:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func waitFollower(errCh <-chan error) error {
	err := <-errCh
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
