package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tessro/needle/internal/access"
	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/session"
)

var (
	accessPasswordStdin bool
	accessResetYes      bool
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Manage the access tier",
	Long: `Commands for unlocking and resetting the access tier.

Tiers are guest, authenticated and secret. The tier only ever goes up
until it is reset.`,
}

var accessUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock with the password",
	Long:  `Prompts for the shared password and installs the signed cookies.`,
	RunE:  runAccessUnlock,
}

var accessKeysCmd = &cobra.Command{
	Use:   "keys <key>...",
	Short: "Enter a key sequence",
	Long: `Feeds keys to the entry screen as if they were typed.

Examples:
  needle access keys up up down down left right left right`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAccessKeys,
}

var accessResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop back to guest",
	RunE:  runAccessReset,
}

var accessHashCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for access.password_hash",
	RunE:  runAccessHash,
}

func init() {
	accessUnlockCmd.Flags().BoolVar(&accessPasswordStdin, "password-stdin", false, "read the password from stdin")
	accessResetCmd.Flags().BoolVarP(&accessResetYes, "yes", "y", false, "skip confirmation")

	accessCmd.AddCommand(accessUnlockCmd)
	accessCmd.AddCommand(accessKeysCmd)
	accessCmd.AddCommand(accessResetCmd)
	accessCmd.AddCommand(accessHashCmd)
	rootCmd.AddCommand(accessCmd)
}

func runAccessUnlock(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	if !d.verifier().Configured() {
		return needleerrors.WithSuggestion(
			fmt.Errorf("no password configured"),
			"Set access.password or access.password_hash in ~/.needlerc",
		)
	}

	password, err := readPassword("Password", accessPasswordStdin)
	if err != nil {
		return err
	}

	before := d.gate.Tier()
	effects := d.controller().Handle(session.PasswordSubmitted{Password: password})
	for _, e := range effects {
		if p, ok := e.(session.PasswordPrompt); ok {
			if p.Message == "wrong" {
				return &needleerrors.AuthError{Op: "unlock", Err: needleerrors.ErrWrongPassword}
			}
			return &needleerrors.AuthError{Op: "unlock", Err: needleerrors.ErrCookiesMissing}
		}
	}

	return reportTier(before, d.gate.Tier(), session.MethodPassword)
}

func runAccessKeys(cmd *cobra.Command, args []string) error {
	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	before := d.gate.Tier()
	c := d.controller()
	method := ""
	for _, key := range args {
		for _, e := range c.Handle(session.KeyEvent{Key: normalizeArgKey(key)}) {
			if u, ok := e.(session.Unlocked); ok {
				method = u.Method
			}
		}
	}

	if method == "" && !JSONOutput() {
		done, total := c.GestureProgress()
		fmt.Printf("Sequence progress: %d/%d\n", done, total)
	}
	return reportTier(before, d.gate.Tier(), method)
}

func runAccessReset(cmd *cobra.Command, args []string) error {
	if !accessResetYes && term.IsTerminal(int(os.Stdin.Fd())) {
		var confirm bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Reset access to guest?").
					Description("The heard list and cookies are kept.").
					Value(&confirm),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("reset cancelled: %w", err)
		}
		if !confirm {
			return nil
		}
	}

	d, err := openDeps(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	before := d.gate.Tier()
	if err := d.gate.Reset(); err != nil {
		return fmt.Errorf("failed to reset tier: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "reset",
			"from":   before.String(),
			"tier":   access.Guest.String(),
		})
	}
	fmt.Printf("Access reset (was %s).\n", before.Label())
	return nil
}

func runAccessHash(cmd *cobra.Command, args []string) error {
	password, err := readPassword("Password to hash", false)
	if err != nil {
		return err
	}
	hash, err := access.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"password_hash": hash})
	}
	fmt.Println(hash)
	return nil
}

// readPassword prompts on a terminal or reads one line from stdin.
func readPassword(title string, fromStdin bool) (string, error) {
	if fromStdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("password entry cancelled: %w", err)
	}
	return password, nil
}

// normalizeArgKey maps arrow glyphs to key names.
func normalizeArgKey(key string) string {
	switch key {
	case "↑":
		return "up"
	case "↓":
		return "down"
	case "←":
		return "left"
	case "→":
		return "right"
	}
	return strings.ToLower(key)
}

func reportTier(before, after access.Tier, method string) error {
	if JSONOutput() {
		return printJSON(map[string]any{
			"tier":     after.String(),
			"previous": before.String(),
			"upgraded": after > before,
			"method":   method,
		})
	}

	if after > before {
		fmt.Printf("Unlocked: %s\n", after.Label())
		if after == access.Authenticated {
			fmt.Printf("Hint: %s\n", session.ChordHint)
		}
		return nil
	}
	fmt.Printf("Access: %s\n", after.Label())
	return nil
}
