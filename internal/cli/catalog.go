package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/catalog"
	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

var catalogLimit int

var catalogCmd = &cobra.Command{
	Use:     "catalog [query]",
	Aliases: []string{"ls", "search"},
	Short:   "List or search the catalog",
	Long: `Lists catalog tracks, optionally filtered by a case-insensitive
query matched against artist, album, title and year.

Browsing needs the tier set by access.browse_tier.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().IntVarP(&catalogLimit, "limit", "n", 0, "maximum rows to show")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	browse, _ := access.ParseTier(cfg.Access.BrowseTier)
	if err := d.requireTier("catalog", browse); err != nil {
		return err
	}

	cat, err := d.fetchCatalog(cmd.Context())
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	tracks := catalog.Filter(cat.Tracks(), query)
	if query != "" {
		d.recorder.Search(query, len(tracks))
	}
	total := len(tracks)
	if catalogLimit > 0 && len(tracks) > catalogLimit {
		tracks = tracks[:catalogLimit]
	}

	heard := core.LoadHeardSet(d.kv)

	if JSONOutput() {
		return printJSON(map[string]any{
			"query":  query,
			"total":  total,
			"tracks": tracks,
		})
	}

	if total == 0 {
		fmt.Println("No tracks match.")
		return nil
	}

	t := NewTable("", "Artist", "Title", "Album", "Year", "ID")
	for _, tr := range tracks {
		t.Row(
			StatusIcon(heard.Has(tr.ID)),
			TruncateString(tr.DisplayArtist(), 28),
			TruncateString(tr.DisplayTitle(), 40),
			TruncateString(tr.DisplayAlbum(), 28),
			tr.DisplayYear(),
			tr.ID,
		)
	}
	t.Footer("", "", fmt.Sprintf("%d of %d tracks", len(tracks), cat.Len()), "", "", "")
	t.Flush()
	return nil
}

// fetchCatalog loads the manifest with the installed cookies.
func (d *deps) fetchCatalog(ctx context.Context) (*core.Catalog, error) {
	if !d.jar.Valid() {
		return nil, &needleerrors.AuthError{Op: "catalog", Err: needleerrors.ErrCookiesMissing}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.CDN.Timeout)*time.Second)
	defer cancel()

	m, err := d.client.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}
	return core.NewCatalog(m.Tracks), nil
}
