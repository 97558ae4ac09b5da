package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/mcp"
	"github.com/Aman-CERP/bookmarks/internal/output"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// facetPreview caps the facet buckets shown under a search header.
const facetPreview = 5

func newSearchCmd(a *app) *cobra.Command {
	var (
		page     int
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search bookmarks by content",
		Long: `Search bookmark content with the query string syntax.

Terms match page content; a leading - excludes a term and field:value
restricts a term to a field, such as tag:go or domain:go.dev. With no
query every bookmark matches, sorted by title.`,
		Example: `  bookmarks search rust
  bookmarks search 'concurrency -python' --page 2
  bookmarks search tag:go --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return bmerrors.New(bmerrors.ErrCodeInvalidPage, "--page must be 1 or more", nil)
			}
			query := strings.TrimSpace(strings.Join(args, " "))

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer a.closeStore(s)

			res, err := a.queryEngine(s).Search(cmd.Context(), query, page)
			if err != nil {
				return err
			}

			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), mcp.ToSearchOutput(query, res, a.cfg.Search.PageSize))
			}
			printSearch(cmd.OutOrStdout(), query, res, a.cfg.Search.PageSize)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page, starting at 1")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print results as JSON")

	return cmd
}

func printSearch(w io.Writer, query string, res *catalog.SearchResult, pageSize int) {
	out := output.New(w)
	if res.Total == 0 {
		if query == "" {
			out.Status("📭", "No bookmarks yet")
		} else {
			out.Statusf("📭", "No bookmarks found for %q", query)
		}
		return
	}

	out.Statusf("🔍", "Found %d bookmark(s) (page %d of %d)", res.Total, res.Page, res.Pages)
	out.Field("domains:", facetSummary(catalog.RankFacets(res.Domains)))
	out.Field("tags:", facetSummary(catalog.RankFacets(res.Tags)))

	first := (res.Page-1)*pageSize + 1
	for i, hit := range res.Results {
		out.Newline()
		printRecord(out, fmt.Sprintf("%d. ", first+i), hit.Record, hit.Fragment)
	}
}

func printRecord(out *output.Writer, prefix string, r record.Record, fragment string) {
	title := ""
	if len(r.Title) > 0 {
		title = r.Title[0]
	}
	out.Statusf("🔖", "%s%s", prefix, title)
	out.Field("url:", r.ID())
	if parts := r.Parts(); len(parts) > 0 {
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			items = append(items, p.Title+"  "+p.URL)
		}
		out.List(items)
	}
	out.Field("domain:", r.Domain)
	out.Field("tags:", strings.Join(r.Tag, ", "))
	out.Field("match:", fragment)
}

func facetSummary(facets []catalog.FacetCount) string {
	shown := facets
	if len(shown) > facetPreview {
		shown = shown[:facetPreview]
	}
	parts := make([]string, 0, len(shown)+1)
	for _, f := range shown {
		parts = append(parts, fmt.Sprintf("%s (%d)", f.Key, f.Count))
	}
	if rest := len(facets) - len(shown); rest > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", rest))
	}
	return strings.Join(parts, ", ")
}

func newTagsCmd(a *app) *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer a.closeStore(s)

			tags, err := a.queryEngine(s).ListTags(cmd.Context())
			if err != nil {
				return err
			}
			if tags == nil {
				tags = []string{}
			}

			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), mcp.ListTagsOutput{Tags: tags})
			}
			out := output.New(cmd.OutOrStdout())
			if len(tags) == 0 {
				out.Status("🏷️", "No tags yet")
				return nil
			}
			out.Statusf("🏷️", "%d tag(s)", len(tags))
			out.List(tags)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print tags as JSON")

	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Show one bookmark by its url",
		Long: `Show one bookmark. A collection is found by its first url, the url of
the collection page itself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer a.closeStore(s)

			r, err := a.queryEngine(s).Lookup(cmd.Context(), url)
			if err != nil {
				return err
			}
			if r == nil {
				return bmerrors.ValidationError(fmt.Sprintf("no bookmark has the url %s", url), nil).
					WithSuggestion("Run 'bookmarks search' to find the bookmark's url")
			}

			if jsonMode {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			printRecord(output.New(cmd.OutOrStdout()), "", *r, "")
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print the stored record as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
