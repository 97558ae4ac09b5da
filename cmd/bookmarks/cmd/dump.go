package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bookmarks/internal/dump"
	"github.com/Aman-CERP/bookmarks/internal/output"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		outPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every bookmark to a dump file",
		Long: `Write every bookmark as one JSON or YAML object keyed by url.

The dump is written to stdout unless --output is given. Its format follows
--format, or the output file's extension, defaulting to JSON. A dump can be
loaded back with 'bookmarks import'.`,
		Example: `  bookmarks export > bookmarks.json
  bookmarks export -o bookmarks.yaml
  bookmarks export --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := dump.FormatForPath(outPath)
			if format != "" {
				parsed, err := dump.ParseFormat(format)
				if err != nil {
					return err
				}
				f = parsed
			}
			return runExport(cmd, a, outPath, f)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the dump to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Dump format: json or yaml")

	return cmd
}

func runExport(cmd *cobra.Command, a *app, outPath string, format dump.Format) error {
	ctx := cmd.Context()

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeStore(s)

	// The total only drives the progress bar; a failure here surfaces again
	// from the export itself.
	total := 0
	progress := outPath != "" && isStream(cmd.ErrOrStderr())
	if progress {
		if res, err := a.queryEngine(s).Search(ctx, "", 1); err == nil {
			total = res.Total
		}
	}

	bar := output.New(cmd.ErrOrStderr())
	recs := []record.Record{}
	err = a.exporter(s).Walk(ctx, func(r record.Record) error {
		recs = append(recs, r)
		if progress {
			bar.Progress(len(recs), total, "Exporting")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if outPath == "" {
		w := bufio.NewWriter(cmd.OutOrStdout())
		if err := dump.Write(w, recs, format); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := writeDumpFile(outPath, recs, format); err != nil {
		return err
	}
	output.New(cmd.OutOrStdout()).Successf("Exported %d bookmarks to %s", len(recs), outPath)
	return nil
}

// writeDumpFile writes to a temporary file beside path and renames it into
// place, so a failed export never truncates an earlier dump.
func writeDumpFile(path string, recs []record.Record, format dump.Format) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(f)
	if err := dump.Write(w, recs, format); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Load bookmarks from a dump file",
		Long: `Load every bookmark in a JSON or YAML dump, as written by 'bookmarks export'.

Bookmarks are keyed by url: an imported bookmark replaces any bookmark with
the same url. Every record is validated before anything is written. If the
store rejects part of the batch, some bookmarks may have been written; run
the import again to be sure.

Pass - to read the dump from stdin.`,
		Example: `  bookmarks import bookmarks.json
  cat bookmarks.yaml | bookmarks import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, args[0], cmd.InOrStdin())
		},
	}
}

func runImport(cmd *cobra.Command, a *app, path string, stdin io.Reader) error {
	recs, err := dump.ReadFile(path, stdin)
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeStore(s)

	n, err := a.importer(s).Import(cmd.Context(), recs)
	if err != nil {
		return err
	}

	output.New(cmd.OutOrStdout()).Successf("Imported %d bookmarks", n)
	return nil
}
