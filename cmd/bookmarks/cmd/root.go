// Package cmd provides the CLI commands for the bookmarks binary.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bookmarks/internal/config"
	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/logging"
	"github.com/Aman-CERP/bookmarks/internal/metrics"
	"github.com/Aman-CERP/bookmarks/pkg/version"
)

// skipSetupAnnotation marks commands that run without loading configuration
// or logging, such as version and config init.
const skipSetupAnnotation = "bookmarks/skip-setup"

// app is the state shared by every subcommand of one invocation. It is
// built by the root command's pre-run hook, never globally.
type app struct {
	configPath string
	debug      bool
	logFile    string

	cfg     *config.Config
	logger  *slog.Logger
	cleanup func()
}

// NewRootCmd creates the root command for the bookmarks CLI.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Full-text searchable bookmark catalog",
		Long: `bookmarks keeps a catalog of bookmarked pages in an embedded full-text index.

Bookmarks are indexed together with the visible text of their pages, so a
search finds a page by what it says, not only by its title. Results are
faceted by domain and tag.

A bookmark is either a single page or a collection: a titled page with
titled parts. Its first url is its identity.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.teardown() },
	}

	cmd.SetVersionTemplate("bookmarks version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Configuration file (default ./bookmarks.yaml when present)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging, also written to stderr")
	cmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Log file (default ~/.bookmarks/logs/bookmarks.log)")

	cmd.AddCommand(newCreateCmd(a))
	cmd.AddCommand(newDropCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newTagsCmd(a))
	cmd.AddCommand(newGetCmd(a))
	cmd.AddCommand(newAddCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd, a
}

// setup loads configuration and starts logging for the running command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipSetupAnnotation] == "true" {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return bmerrors.ConfigError("cannot load configuration", err).
			WithSuggestion("Run 'bookmarks config show --source defaults' to compare with the defaults")
	}
	a.cfg = cfg

	level := cfg.Server.LogLevel
	if a.debug {
		level = "debug"
	}

	if cmd.Name() == "mcp" {
		// stdout carries JSON-RPC; logs go to the file only.
		cleanup, err := logging.SetupMCPMode(level, a.logFile)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		a.cleanup = cleanup
		a.logger = slog.Default()
	} else {
		logCfg := logging.DefaultConfig()
		logCfg.Level = level
		if a.logFile != "" {
			logCfg.FilePath = a.logFile
		}
		logCfg.WriteToStderr = a.debug || cmd.Name() == "serve"

		logger, cleanup, err := logging.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		slog.SetDefault(logger)
		a.logger = logger
		a.cleanup = cleanup
	}

	metrics.Register()

	a.logger.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version),
		slog.String("data_dir", cfg.Store.DataDir),
		slog.String("collection", cfg.Store.Collection))

	return nil
}

func (a *app) teardown() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// Execute runs the root command and prints any error for the user.
func Execute() error {
	root, a := newRootCmd()
	// PersistentPostRun is skipped when a command fails.
	defer a.teardown()

	err := root.Execute()
	if err != nil {
		debug, _ := root.PersistentFlags().GetBool("debug")
		printError(root.ErrOrStderr(), err, debug)
	}
	return err
}

func printError(w io.Writer, err error, debug bool) {
	_, _ = fmt.Fprintln(w, bmerrors.FormatForUser(err, debug))
}

// skipSetup marks cmd as runnable without configuration.
func skipSetup(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[skipSetupAnnotation] = "true"
	return cmd
}

// isStream reports whether w is an interactive terminal. Progress bars and
// colors are only drawn there; redirected files and buffers get plain text.
func isStream(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
