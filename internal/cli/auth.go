package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/browser"
	"github.com/tessro/needle/internal/cdn"
)

var authPort int

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage signed CDN cookies",
	Long:  `Commands for installing and refreshing the signed cookies that authorize catalog and media requests.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Fetch fresh cookies from the auth endpoint",
	Long:  `Opens a browser at cdn.auth_url and waits for the signed cookies to be delivered back to a local callback.`,
	RunE:  runAuthLogin,
}

var authImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Install cookies from a bundle file",
	Long:  `Installs a signed-cookie bundle (JSON with policy, signature and key_pair_id).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthImport,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the installed cookies",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cookie status",
	RunE:  runAuthStatus,
}

func init() {
	authLoginCmd.Flags().IntVar(&authPort, "port", 8888, "local callback port")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authImportCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if cfg.CDN.AuthURL == "" {
		return fmt.Errorf("cdn.auth_url not configured. Set it in ~/.needlerc or via NEEDLE_CDN_AUTH_URL")
	}

	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	callbackServer, err := cdn.NewCallbackServer(authPort)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	state := uuid.NewString()
	loginURL, err := cdn.LoginURL(cfg.CDN.AuthURL, callbackServer.RedirectURI(), state)
	if err != nil {
		return err
	}

	fmt.Println("Opening browser to refresh cookies...")
	if err := browser.Open(loginURL); err != nil {
		fmt.Printf("Could not open browser automatically.\n")
		fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", loginURL)
	}

	fmt.Println("Waiting for cookies...")
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	result, err := callbackServer.Wait(ctx)
	if err != nil {
		return fmt.Errorf("authentication timed out: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("authentication failed: %s", result.Error)
	}
	if result.State != state {
		return fmt.Errorf("state mismatch: possible CSRF attack")
	}

	cookies := result.Cookies
	if err := d.jar.Set(&cookies); err != nil {
		return err
	}
	d.logger.Info("cookies installed", "source", "callback")

	return reportCookies(&cookies, "installed")
}

func runAuthImport(cmd *cobra.Command, args []string) error {
	cookies, err := cdn.LoadBundle(args[0])
	if err != nil {
		return err
	}

	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	if err := d.jar.Set(cookies); err != nil {
		return err
	}
	d.logger.Info("cookies installed", "source", args[0])

	return reportCookies(cookies, "installed")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	if d.jar.Current() == nil {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_installed"})
		}
		fmt.Println("No cookies installed.")
		return nil
	}

	if err := d.jar.Clear(); err != nil {
		return fmt.Errorf("failed to delete cookies: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "removed"})
	}
	fmt.Println("Cookies removed.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	cookies := d.jar.Current()
	if cookies == nil {
		if JSONOutput() {
			return printJSON(map[string]any{"installed": false})
		}
		fmt.Println("No cookies installed.")
		fmt.Println("Run 'needle auth login' or 'needle auth import <file>'.")
		return nil
	}

	return reportCookies(cookies, "")
}

func reportCookies(c *cdn.SignedCookies, status string) error {
	expires, expErr := c.ExpiresAt()
	valid := c.Valid(time.Now())

	if JSONOutput() {
		out := map[string]any{
			"installed":   true,
			"valid":       valid,
			"key_pair_id": c.KeyPairID,
		}
		if status != "" {
			out["status"] = status
		}
		if expErr == nil {
			out["expires_at"] = expires
		}
		return printJSON(out)
	}

	if status != "" {
		fmt.Printf("Cookies %s.\n", status)
	}
	fmt.Printf("Key pair: %s\n", c.KeyPairID)
	switch {
	case expErr != nil:
		fmt.Println("Expiry:   unknown")
	case valid:
		fmt.Printf("Expiry:   %s (%s)\n", humanize.Time(expires), expires.Format(time.RFC3339))
	default:
		fmt.Printf("Expired:  %s\n", humanize.Time(expires))
		fmt.Println("Run 'needle auth login' to refresh.")
	}
	return nil
}
