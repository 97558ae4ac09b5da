package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/bookmarks/configs"
	"github.com/Aman-CERP/bookmarks/internal/config"
	"github.com/Aman-CERP/bookmarks/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/bookmarks/config.yaml)
  3. --config file, or ./bookmarks.yaml when present
  4. Environment variables (BOOKMARKS_*)`,
		Example: `  # Create user config from template
  bookmarks config init

  # Show effective configuration
  bookmarks config show

  # Print user config file path
  bookmarks config path`,
	}

	cmd.AddCommand(skipSetup(newConfigInitCmd()))
	cmd.AddCommand(skipSetup(newConfigShowCmd(a)))
	cmd.AddCommand(skipSetup(newConfigPathCmd()))

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file from a template with every setting
commented out.

The file is created at ~/.config/bookmarks/config.yaml, or
$XDG_CONFIG_HOME/bookmarks/config.yaml if XDG_CONFIG_HOME is set.`,
		Example: `  bookmarks config init
  bookmarks config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file, keeping a backup")

	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	var backupPath string
	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("📁", "Location: %s", configPath)
			out.Newline()
			out.Status("💡", "Use --force to replace it with the template (a backup is kept)")
			return nil
		}

		var err error
		if backupPath, err = config.BackupUserConfig(); err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created user configuration")
	out.Statusf("📁", "Location: %s", configPath)
	if backupPath != "" {
		out.Statusf("💾", "Backup: %s", backupPath)
		if backups, err := config.ListUserConfigBackups(); err == nil {
			out.Statusf("", "%d backup(s) kept, newest first:", len(backups))
			out.List(backups)
		}
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Uncomment and edit the settings you want to change")
	out.Status("", "  2. Run 'bookmarks config show' to verify")

	return nil
}

func newConfigShowCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the configuration after merging every source, or a single source
with --source.`,
		Example: `  bookmarks config show
  bookmarks config show --json
  bookmarks config show --source defaults`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, a.configPath, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, defaults")

	return cmd
}

func runConfigShow(cmd *cobra.Command, configPath string, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg        *config.Config
		sourceDesc string
	)

	switch source {
	case "merged":
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		sourceDesc = "merged (defaults + user + file + env)"

	case "user":
		userPath := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Statusf("📁", "Expected at: %s", userPath)
			out.Status("💡", "Run 'bookmarks config init' to create one")
			return nil
		}

		cfg = config.NewConfig()
		data, err := os.ReadFile(userPath)
		if err != nil {
			return fmt.Errorf("failed to read user config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse user config: %w", err)
		}
		sourceDesc = fmt.Sprintf("user (%s)", userPath)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, defaults)", source)
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out.Statusf("📋", "Configuration source: %s", sourceDesc)
	out.Code(string(data))
	return nil
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
