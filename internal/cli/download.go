package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/analytics"
	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

var (
	downloadDir string
	downloadYes bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <id|query>",
	Short: "Save tracks to disk",
	Long: `Downloads a track by id, or every track matching a query, as
"Artist - Title.mp3".

Downloading needs the tier set by access.download_tier.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "o", "", "target directory (default: downloads.dir)")
	downloadCmd.Flags().BoolVarP(&downloadYes, "yes", "y", false, "skip confirmation for multiple tracks")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	tier, _ := access.ParseTier(cfg.Access.DownloadTier)
	if err := d.requireTier("download", tier); err != nil {
		return err
	}

	cat, err := d.fetchCatalog(cmd.Context())
	if err != nil {
		return err
	}

	tracks := selectTracks(cat, strings.Join(args, " "))
	if len(tracks) == 0 {
		return needleerrors.ErrTrackNotFound
	}

	if len(tracks) > 1 && !downloadYes && !JSONOutput() && term.IsTerminal(int(os.Stdin.Fd())) {
		confirm := true
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Download %d tracks?", len(tracks))).
					Affirmative("Download").
					Negative("Cancel").
					Value(&confirm),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("download cancelled: %w", err)
		}
		if !confirm {
			return nil
		}
	}

	dir := downloadDir
	if dir == "" {
		dir = cfg.Downloads.Dir
	}

	var progress func(core.Track, int64, int64)
	if !JSONOutput() && term.IsTerminal(int(os.Stderr.Fd())) {
		progress = func(t core.Track, written, total int64) {
			size := "?"
			if total > 0 {
				size = humanize.Bytes(uint64(total))
			}
			fmt.Fprintf(os.Stderr, "\r%s  %s / %s   ", TruncateString(t.String(), 40), humanize.Bytes(uint64(written)), size)
		}
	}

	result := d.client.DownloadAll(cmd.Context(), tracks, dir, progress)
	if progress != nil {
		fmt.Fprintln(os.Stderr)
	}

	var total int64
	for _, r := range result.Data {
		total += r.Bytes
		d.recorder.Track(analytics.Download, analytics.TrackParams(r.Track))
	}

	if JSONOutput() {
		out := map[string]any{"downloaded": result.Data, "bytes": total}
		if result.HasErrors() {
			out["errors"] = result.ErrorSummary()
		}
		if err := printJSON(out); err != nil {
			return err
		}
	} else {
		for _, r := range result.Data {
			fmt.Printf("Saved %s (%s)\n", r.Path, humanize.Bytes(uint64(r.Bytes)))
		}
		if len(result.Data) > 1 {
			fmt.Printf("%d tracks, %s\n", len(result.Data), humanize.Bytes(uint64(total)))
		}
	}

	if result.HasErrors() {
		return fmt.Errorf("some downloads failed: %s", result.ErrorSummary())
	}
	return nil
}

// selectTracks resolves an id first, then falls back to a query.
func selectTracks(cat *core.Catalog, arg string) []core.Track {
	if t, ok := cat.ByID(arg); ok {
		return []core.Track{t}
	}
	return catalog.Filter(cat.Tracks(), arg)
}
