package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/needle/internal/access"
	"github.com/tessro/needle/internal/config"
	needleerrors "github.com/tessro/needle/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing needle configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Common keys:
  cdn.base_url          CDN origin serving the manifest and media
  cdn.auth_url          Re-authentication endpoint
  cdn.cookies_file      Signed-cookie bundle installed on unlock
  access.password_hash  bcrypt hash (see 'needle access hash-password')
  access.browse_tier    Tier needed to browse (guest/authenticated/secret)
  access.download_tier  Tier needed to download
  player.command        Media player executable
  player.volume         Initial volume (0-100)
  player.seek_step      Seek step in seconds
  storage.backend       file or sqlite
  downloads.dir         Download directory
  analytics.disabled    Disable the local event log (true/false)

Examples:
  needle config set cdn.base_url https://music.example.com
  needle config set player.volume 50`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetTiersCmd = &cobra.Command{
	Use:   "set-tiers",
	Short: "Interactively choose browse and download tiers",
	RunE:  runConfigSetTiers,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config and state file locations",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetTiersCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *cfg
	if shown.Access.Password != "" {
		shown.Access.Password = "********"
	}

	if JSONOutput() {
		return printJSON(shown)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(shown)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'needle config init' first", configPath)
	}

	editor := findEditor()
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return err
	}

	// Report mistakes now rather than on the next command.
	edited, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("config no longer parses: %w", err)
	}
	if err := edited.Validate(); err != nil {
		return fmt.Errorf("%w: %w", needleerrors.ErrInvalidConfig, err)
	}
	return nil
}

func findEditor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	for _, e := range []string{"nano", "vim", "vi", "notepad"} {
		if _, err := exec.LookPath(e); err == nil {
			return e
		}
	}
	return ""
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := writeConfigFile(configPath, config.Default()); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set cdn.base_url in the config file or via NEEDLE_CDN_BASE_URL")
	fmt.Println("  2. Set access.password_hash with 'needle access hash-password'")
	fmt.Println("  3. Run 'needle auth import <file>' or 'needle auth login' to install cookies")
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := config.FindConfigFile(); p != "" {
		return p
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".needlerc"
	}
	return filepath.Join(home, ".needlerc")
}

// writeConfigFile encodes v as TOML under a header. The file may hold the
// shared password, so it is private to the user.
func writeConfigFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# Needle Configuration")
	_, _ = fmt.Fprintln(f, "# https://github.com/tessro/needle")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// settableKeys lists the keys accepted by 'config set'.
var settableKeys = map[string]valueKind{
	"cdn.base_url":         kindString,
	"cdn.manifest_path":    kindString,
	"cdn.auth_url":         kindString,
	"cdn.cookies_file":     kindString,
	"cdn.timeout":          kindInt,
	"cdn.rate_limit":       kindFloat,
	"access.password":      kindString,
	"access.password_hash": kindString,
	"access.browse_tier":   kindString,
	"access.download_tier": kindString,
	"player.command":       kindString,
	"player.volume":        kindInt,
	"player.seek_step":     kindInt,
	"player.max_failures":  kindInt,
	"storage.backend":      kindString,
	"storage.path":         kindString,
	"downloads.dir":        kindString,
	"analytics.disabled":   kindBool,
	"analytics.file":       kindString,
	"tui.theme":            kindString,
	"tui.refresh_interval": kindInt,
	"log.level":            kindString,
	"log.file":             kindString,
	"log.max_size":         kindInt,
	"log.max_backups":      kindInt,
}

func parseValue(key, value string) (any, error) {
	kind, ok := settableKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown key %q. See 'needle config show' for key names", key)
	}

	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be a number for %s", key)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("value must be true or false for %s", key)
		}
		return b, nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	typedValue, err := parseValue(key, value)
	if err != nil {
		return err
	}
	section, field, _ := strings.Cut(key, ".")

	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'needle config init' first", configPath)
	}

	// Edit the raw document so keys the user left out stay out.
	rawConfig := map[string]any{}
	if _, err := toml.DecodeFile(configPath, &rawConfig); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	sectionMap, ok := rawConfig[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		rawConfig[section] = sectionMap
	}
	sectionMap[field] = typedValue

	if err := validateRaw(rawConfig); err != nil {
		return err
	}
	if err := writeConfigFile(configPath, rawConfig); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// validateRaw checks a raw document the way Load would see it.
func validateRaw(raw map[string]any) error {
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	var c config.Config
	md, err := toml.Decode(buf.String(), &c)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	c.ApplyDefaultsFor(md)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", needleerrors.ErrInvalidConfig, err)
	}
	return nil
}

func runConfigSetTiers(cmd *cobra.Command, args []string) error {
	var options []huh.Option[string]
	for _, t := range access.Tiers() {
		options = append(options, huh.NewOption(t.Label(), t.String()))
	}

	browse, download := cfg.Access.BrowseTier, cfg.Access.DownloadTier
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Tier needed to browse the catalog").
				Options(options...).
				Value(&browse),
			huh.NewSelect[string]().
				Title("Tier needed to download tracks").
				Options(options...).
				Value(&download),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	if err := runConfigSet(cmd, []string{"access.browse_tier", browse}); err != nil {
		return err
	}
	return runConfigSet(cmd, []string{"access.download_tier", download})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	paths := map[string]string{
		"config":    getConfigPath(),
		"store":     cfg.StorePath(),
		"analytics": cfg.AnalyticsPath(),
		"tui_log":   cfg.TUILogPath(),
		"downloads": cfg.Downloads.Dir,
	}
	if JSONOutput() {
		return printJSON(paths)
	}

	t := NewTable()
	for _, k := range []string{"config", "store", "analytics", "tui_log", "downloads"} {
		t.Row(k, paths[k])
	}
	t.Flush()
	return nil
}
