package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/core"
	needleerrors "github.com/tessro/needle/internal/errors"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Encode and decode track links",
	Long: `Track links carry a media path in a URL fragment. Pass one to
'needle play --link' or 'needle ui --link' to start on that track.`,
}

var linkEncodeCmd = &cobra.Command{
	Use:   "encode <id|path>",
	Short: "Print the link for a track",
	Long: `Prints the fragment for a media path. An argument without a slash
is looked up as a track id in the catalog first.`,
	Args: cobra.ExactArgs(1),
	RunE: runLinkEncode,
}

var linkDecodeCmd = &cobra.Command{
	Use:   "decode <fragment>",
	Short: "Print the media path in a link",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkDecode,
}

func init() {
	linkCmd.AddCommand(linkEncodeCmd)
	linkCmd.AddCommand(linkDecodeCmd)
	rootCmd.AddCommand(linkCmd)
}

func runLinkEncode(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.Contains(path, "/") {
		d, err := openDeps(os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()

		cat, err := d.fetchCatalog(cmd.Context())
		if err != nil {
			return err
		}
		t, ok := cat.ByID(path)
		if !ok {
			return fmt.Errorf("%s: %w", path, needleerrors.ErrTrackNotFound)
		}
		path = t.Path
	}

	fragment := core.EncodeTrackLink(path)
	url := shareURL(cfg.CDN.BaseURL, fragment)

	if JSONOutput() {
		return printJSON(map[string]string{"path": path, "fragment": fragment, "url": url})
	}
	if url != "" {
		fmt.Println(url)
		return nil
	}
	fmt.Println("#" + fragment)
	return nil
}

func runLinkDecode(cmd *cobra.Command, args []string) error {
	fragment := args[0]
	if i := strings.Index(fragment, "#"); i >= 0 {
		fragment = fragment[i:]
	}
	path, err := core.DecodeTrackLink(fragment)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"path": path})
	}
	fmt.Println(path)
	return nil
}

// shareInfo is where a track can be shared from and its artwork found.
type shareInfo struct {
	Link    string `json:"link"`
	URL     string `json:"url,omitempty"`
	Artwork string `json:"artwork_url,omitempty"`
}

func shareFor(t core.Track, baseURL string, mediaURL func(path string) string) shareInfo {
	fragment := core.EncodeTrackLink(t.Path)
	s := shareInfo{
		Link: "#" + fragment,
		URL:  shareURL(baseURL, fragment),
	}
	if t.Artwork != "" && mediaURL != nil {
		s.Artwork = mediaURL(t.Artwork)
	}
	return s
}

// shareURL joins the site base URL and a track fragment; it is empty when
// no base URL is configured.
func shareURL(baseURL, fragment string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/#" + fragment
}

func (d *deps) share(t core.Track) shareInfo {
	return shareFor(t, cfg.CDN.BaseURL, d.client.MediaURL)
}
