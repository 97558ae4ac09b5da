package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bookmarks/internal/ingest"
	"github.com/Aman-CERP/bookmarks/internal/output"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

type addOptions struct {
	urls            []string
	titles          []string
	collectionTitle string
	tags            []string
	content         string
	noFetch         bool
}

// fields converts the flags to submission form fields. Unset optional
// flags are left out so the submission sees only what was given.
func (o addOptions) fields() map[string][]string {
	f := map[string][]string{
		ingest.FieldURL:   o.urls,
		ingest.FieldTitle: o.titles,
	}
	if len(o.tags) > 0 {
		f[ingest.FieldTag] = o.tags
	}
	if o.collectionTitle != "" {
		f[ingest.FieldCollectionTitle] = []string{o.collectionTitle}
	}
	if o.content != "" {
		f[ingest.FieldContent] = []string{o.content}
	}
	return f
}

func newAddCmd(a *app) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a bookmark or a collection",
		Long: `Add a bookmark, replacing any bookmark with the same first url.

Give --url and --title once each for a single page. For a collection, give
--collection-title, the collection page's own url first and then one
--url and --title pair per part.

Without --content the page text is fetched from every url concurrently;
pages that cannot be fetched are skipped. Pass --no-fetch to store the
bookmark without content.`,
		Example: `  bookmarks add --url https://go.dev/doc/effective_go --title "Effective Go" --tag go
  bookmarks add --collection-title "Go blog" --url https://go.dev/blog \
    --url https://go.dev/blog/pipelines --title "Pipelines" --tag go`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdd(cmd, a, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.urls, "url", "u", nil, "Page url (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.titles, "title", "t", nil, "Page title (repeatable)")
	cmd.Flags().StringVar(&opts.collectionTitle, "collection-title", "", "Make the bookmark a collection with this title")
	cmd.Flags().StringArrayVar(&opts.tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&opts.content, "content", "", "Page text to index instead of fetching it")
	cmd.Flags().BoolVar(&opts.noFetch, "no-fetch", false, "Do not fetch page text when --content is empty")

	return cmd
}

func runAdd(cmd *cobra.Command, a *app, opts addOptions) error {
	ctx := cmd.Context()
	if a.cfg.Ingest.FetchTimeout > 0 && !opts.noFetch {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*a.cfg.Ingest.FetchTimeout)
		defer cancel()
	}

	built, err := a.pipeline(!opts.noFetch).BuildFromFields(ctx, opts.fields())
	if err != nil {
		return err
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeStore(s)

	if _, err := a.importer(s).Import(ctx, []record.Record{built.Record}); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("Saved %s", built.Record.ID())
	if built.FetchFailures > 0 {
		out.Warningf("%d page(s) could not be fetched", built.FetchFailures)
	}
	printRecord(out, "", built.Record, "")
	return nil
}
