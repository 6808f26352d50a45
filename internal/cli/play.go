package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/session"
	"github.com/tessro/needle/internal/wizard"
)

var (
	playLink string
	playPick bool
)

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Shuffle the catalog without the UI",
	Long: `Plays the catalog in shuffle order through the configured player,
never repeating a track until every track has been heard.

With a query, playback starts on the best match. Choosing a track needs
the browse tier.

Examples:
  needle play                       # Shuffle
  needle play "burial archangel"    # Start on a match
  needle play --pick                # Choose from a list
  needle play --link '#dGVzdC5tcDM' # Start on a shared link`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playLink, "link", "", "start on a shared track link")
	playCmd.Flags().BoolVar(&playPick, "pick", false, "choose the first track interactively")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

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

	c := d.controller()
	if _, err := c.Begin(); err != nil {
		return err
	}

	fetchCtx, fetchCancel := context.WithTimeout(ctx, time.Duration(cfg.CDN.Timeout)*time.Second)
	m, fetchErr := d.client.FetchManifest(fetchCtx)
	fetchCancel()

	if fetchErr == nil {
		path, err := startPath(d, m, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if path != "" {
			c.Handle(session.DeepLinked{Path: path})
		}
	}

	p := d.player()
	defer func() { _ = p.Close() }()
	x := d.executor(p)

	showProgress := !JSONOutput() && term.IsTerminal(int(os.Stderr.Fd()))
	lastID := ""
	report := func(effects []session.Effect) error {
		for _, e := range effects {
			switch e := e.(type) {
			case session.Redirect:
				return needleerrors.ErrReauthRequired
			case session.ShowError:
				return fmt.Errorf("%s", e.Message)
			}
		}
		if t := c.Current(); t != nil && t.ID != lastID {
			lastID = t.ID
			if showProgress {
				fmt.Fprint(os.Stderr, "\r\033[K")
			}
			printNowPlaying(c, *t, d.share(*t))
		}
		return nil
	}

	if err := report(session.Drive(ctx, c, x, session.ManifestLoaded{Manifest: m, Err: fetchErr})); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop(context.Background())
			return nil

		case ev, ok := <-p.Events():
			if !ok {
				return nil
			}
			if err := report(session.Drive(ctx, c, x, session.PlayerEvent(ev))); err != nil {
				return err
			}

		case <-ticker.C:
			state, err := p.State(ctx)
			if err != nil || !state.HasTrack() {
				continue
			}
			c.Handle(session.ProgressUpdated{Position: state.Position, Duration: state.Duration})
			if showProgress {
				pos, dur := int(state.Position.Seconds()), int(state.Duration.Seconds())
				fmt.Fprintf(os.Stderr, "\r  %s %s %s ", FormatDuration(pos), FormatProgress(pos, dur, 30), FormatDuration(dur))
			}
		}
	}
}

// startPath resolves --link, a query or the picker to a media path. An
// empty path means shuffle.
func startPath(d *deps, m *core.Manifest, query string) (string, error) {
	if playLink != "" {
		return core.DecodeTrackLink(playLink)
	}
	if query == "" && !playPick {
		return "", nil
	}

	browse, _ := access.ParseTier(cfg.Access.BrowseTier)
	if err := d.requireTier("play", browse); err != nil {
		return "", err
	}

	tracks := catalog.Filter(m.Tracks, query)
	if len(tracks) == 1 && !playPick {
		return tracks[0].Path, nil
	}

	interactive := wizard.NewInteractive()
	interactive.SetEnabled(!JSONOutput())
	interactive.SetTracks(m.Tracks)
	if interactive.CanInteract() {
		t, err := interactive.PromptTrack(query)
		if err != nil {
			return "", err
		}
		if t == nil {
			return "", fmt.Errorf("no track selected")
		}
		return t.Path, nil
	}

	if len(tracks) == 0 {
		return "", fmt.Errorf("no tracks match '%s': %w", query, needleerrors.ErrTrackNotFound)
	}
	return tracks[0].Path, nil
}

func printNowPlaying(c *session.Controller, t core.Track, share shareInfo) {
	if JSONOutput() {
		_ = printJSON(map[string]any{
			"status": "playing",
			"track":  t,
			"share":  share,
			"heard":  c.Heard().Len(),
			"total":  c.Catalog().Len(),
		})
		return
	}
	fmt.Printf("▶ %s — %s  [%d/%d]\n", t.DisplayArtist(), t.DisplayTitle(), c.Heard().Len(), c.Catalog().Len())
	link := share.Link
	if share.URL != "" {
		link = share.URL
	}
	fmt.Printf("  🔗 %s\n", link)
	if share.Artwork != "" {
		fmt.Printf("  🖼 %s\n", share.Artwork)
	}
}
