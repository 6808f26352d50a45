package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/analytics"
	"github.com/tessro/needle/internal/core"
)

var statusRemote bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show access tier, cookies and listening progress",
	Long: `Shows the stored access tier, the signed cookie state and how much of
the catalog has been heard. With --remote the manifest is fetched so the
heard count can be shown as a percentage.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusRemote, "remote", "r", false, "fetch the manifest")
	rootCmd.AddCommand(statusCmd)
}

type statusResult struct {
	Tier          string     `json:"tier"`
	CookiesValid  bool       `json:"cookies_valid"`
	CookieExpiry  *time.Time `json:"cookies_expire_at,omitempty"`
	Heard         int        `json:"heard"`
	CatalogSize   int        `json:"catalog_size,omitempty"`
	HeardPercent  int        `json:"heard_percent,omitempty"`
	LastPlayed    string     `json:"last_played,omitempty"`
	LastPlayedAt  *time.Time `json:"last_played_at,omitempty"`
	LastShare     *shareInfo `json:"last_played_share,omitempty"`
	StoreBackend  string     `json:"store_backend"`
	StorePath     string     `json:"store_path"`
	CatalogError  string     `json:"catalog_error,omitempty"`
	AnalyticsFile string     `json:"analytics_file,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	heard := core.LoadHeardSet(d.kv)
	res := statusResult{
		Tier:         d.gate.Tier().String(),
		CookiesValid: d.jar.Valid(),
		Heard:        heard.Len(),
		StoreBackend: cfg.Storage.Backend,
		StorePath:    cfg.StorePath(),
	}
	if c := d.jar.Current(); c != nil {
		if exp, err := c.ExpiresAt(); err == nil {
			res.CookieExpiry = &exp
		}
	}

	var lastID string
	if !cfg.Analytics.Disabled {
		res.AnalyticsFile = cfg.AnalyticsPath()
		if last, ok := lastPlayed(res.AnalyticsFile); ok {
			lastID = last.String("track_id")
			res.LastPlayed = fmt.Sprintf("%s - %s", last.String("artist"), last.String("title"))
			ts := last.Timestamp
			res.LastPlayedAt = &ts
		}
	}

	if statusRemote && res.CookiesValid {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.CDN.Timeout)*time.Second)
		defer cancel()
		m, err := d.client.FetchManifest(ctx)
		if err != nil {
			res.CatalogError = err.Error()
			if Verbose() {
				d.logger.Warn("manifest fetch failed", "err", err)
			}
		} else {
			cat := core.NewCatalog(m.Tracks)
			heard.Prune(cat)
			res.Heard = heard.Len()
			res.CatalogSize = cat.Len()
			res.HeardPercent = heard.Percent(cat)
			if t, ok := cat.ByID(lastID); ok {
				share := d.share(t)
				res.LastShare = &share
			}
		}
	}

	if JSONOutput() {
		return printJSON(res)
	}

	t := NewTable()
	t.Row("Access", d.gate.Tier().Label())
	cookies := fmt.Sprintf("%s %s", StatusIcon(res.CookiesValid), validLabel(res.CookiesValid))
	if res.CookieExpiry != nil {
		cookies += fmt.Sprintf(" (expires %s)", humanize.Time(*res.CookieExpiry))
	}
	t.Row("Cookies", cookies)
	if res.CatalogSize > 0 {
		t.Row("Heard", fmt.Sprintf("%d of %d (%d%%)", res.Heard, res.CatalogSize, res.HeardPercent))
	} else {
		t.Row("Heard", humanize.Comma(int64(res.Heard)))
	}
	if res.LastPlayed != "" {
		t.Row("Last played", fmt.Sprintf("%s, %s", TruncateString(res.LastPlayed, 48), humanize.Time(*res.LastPlayedAt)))
	}
	if res.LastShare != nil {
		link := res.LastShare.Link
		if res.LastShare.URL != "" {
			link = res.LastShare.URL
		}
		t.Row("Share", link)
		if res.LastShare.Artwork != "" {
			t.Row("Artwork", res.LastShare.Artwork)
		}
	}
	t.Row("Store", fmt.Sprintf("%s (%s)", res.StorePath, res.StoreBackend))
	if res.CatalogError != "" {
		t.Row("Catalog", res.CatalogError)
	}
	t.Flush()
	return nil
}

func validLabel(ok bool) string {
	if ok {
		return "valid"
	}
	return "missing or expired"
}

// lastPlayed returns the most recent song_play event in the analytics log.
func lastPlayed(path string) (analytics.Event, bool) {
	events, err := analytics.ReadAll(path)
	if err != nil {
		return analytics.Event{}, false
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == analytics.SongPlay {
			return events[i], true
		}
	}
	return analytics.Event{}, false
}
