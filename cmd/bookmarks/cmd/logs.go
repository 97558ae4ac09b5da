package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/logging"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
}

func newLogsCmd(a *app) *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the bookmarks log file",
		Long: `Show the last lines of the log file, or follow new entries with -f.

The file is ~/.bookmarks/logs/bookmarks.log unless --log-file is given.`,
		Example: `  bookmarks logs
  bookmarks logs -n 200 --level warn
  bookmarks logs -f --filter search_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, a.logFile, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level to show (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only show lines matching this regular expression")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return skipSetup(cmd)
}

func runLogs(cmd *cobra.Command, path string, opts logsOptions) error {
	if path == "" {
		path = logging.DefaultLogPath()
	}
	if opts.level != "" && !logging.ValidLevel(opts.level) {
		return bmerrors.ValidationError(fmt.Sprintf("unknown log level %q", opts.level), nil).
			WithSuggestion("Use one of debug, info, warn or error")
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		var err error
		if pattern, err = regexp.Compile(opts.filter); err != nil {
			return bmerrors.ValidationError("invalid --filter pattern", err)
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: opts.noColor || !isStream(cmd.OutOrStdout()),
	}, cmd.OutOrStdout())

	stderr := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(stderr, "Log file: %s\n---\n", path)

	if !opts.follow {
		entries, err := viewer.Tail(path, opts.lines)
		if err != nil {
			return err
		}
		viewer.Print(entries)
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followLogs(ctx, cmd, viewer, path)
}

func followLogs(ctx context.Context, cmd *cobra.Command, viewer *logging.Viewer, path string) error {
	entries := make(chan logging.Entry, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Following... (Ctrl+C to stop)")
	for {
		select {
		case entry := <-entries:
			viewer.Print([]logging.Entry{entry})
		case err := <-errCh:
			return err
		case <-ctx.Done():
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "\n---\nStopped.")
			return nil
		}
	}
}
