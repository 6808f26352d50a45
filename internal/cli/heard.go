package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/core"
)

var heardCmd = &cobra.Command{
	Use:   "heard",
	Short: "Show or reset the heard list",
	Long: `Lists the tracks heard since the catalog was last exhausted. Shuffle
picks only from unheard tracks until every track has been heard.`,
	RunE: runHeardList,
}

var heardResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every heard track",
	RunE:  runHeardReset,
}

func init() {
	heardCmd.AddCommand(heardResetCmd)
	rootCmd.AddCommand(heardCmd)
}

func runHeardList(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	heard := core.LoadHeardSet(d.kv)

	// Titles are only known when the manifest can be fetched.
	var cat *core.Catalog
	if d.jar.Valid() {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.CDN.Timeout)*time.Second)
		defer cancel()
		if m, err := d.client.FetchManifest(ctx); err == nil {
			cat = core.NewCatalog(m.Tracks)
		} else {
			d.logger.Debug("manifest fetch failed", "err", err)
		}
	}

	if JSONOutput() {
		out := map[string]any{"heard": heard.IDs(), "count": heard.Len()}
		if cat != nil {
			out["catalog_size"] = cat.Len()
			out["percent"] = heard.Percent(cat)
		}
		return printJSON(out)
	}

	if heard.Len() == 0 {
		fmt.Println("Nothing heard yet.")
		return nil
	}

	t := NewTable("ID", "Artist", "Title")
	for _, id := range heard.IDs() {
		artist, title := "", ""
		if cat != nil {
			if tr, ok := cat.ByID(id); ok {
				artist, title = tr.DisplayArtist(), tr.DisplayTitle()
			}
		}
		t.Row(id, TruncateString(artist, 30), TruncateString(title, 40))
	}
	if cat != nil {
		t.Footer("", "", fmt.Sprintf("%d of %d heard", heard.Len(), cat.Len()))
	}
	t.Flush()
	return nil
}

func runHeardReset(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	heard := core.LoadHeardSet(d.kv)
	n := heard.Len()
	heard.Clear()
	if err := heard.Save(d.kv); err != nil {
		return fmt.Errorf("failed to save heard list: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]any{"status": "reset", "cleared": n})
	}
	fmt.Printf("Cleared %d heard tracks.\n", n)
	return nil
}
