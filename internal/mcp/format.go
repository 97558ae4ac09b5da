package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// maxFacetLines caps how many facet values FormatSearchResults lists.
const maxFacetLines = 10

// FormatSearchResults formats one page of bookmark search results as
// markdown. pageSize numbers results across pages; 0 numbers from 1.
func FormatSearchResults(query string, res *catalog.SearchResult, pageSize int) string {
	if res == nil || len(res.Results) == 0 {
		if strings.TrimSpace(query) == "" {
			return "No bookmarks found"
		}
		return fmt.Sprintf("No bookmarks found for \"%s\"", query)
	}

	var sb strings.Builder
	if strings.TrimSpace(query) == "" {
		sb.WriteString("## All Bookmarks\n\n")
	} else {
		fmt.Fprintf(&sb, "## Bookmarks matching \"%s\"\n\n", query)
	}
	fmt.Fprintf(&sb, "Found %d bookmark", res.Total)
	if res.Total != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (page %d of %d)\n\n", res.Page, res.Pages)

	writeFacetLine(&sb, "Domains", catalog.RankFacets(res.Domains))
	writeFacetLine(&sb, "Tags", catalog.RankFacets(res.Tags))

	first := 0
	if pageSize > 0 && res.Page > 1 {
		first = (res.Page - 1) * pageSize
	}
	for i, r := range res.Results {
		formatBookmark(&sb, first+i+1, r.Record, r.Fragment)
	}

	return sb.String()
}

// FormatTags formats the tag list as markdown.
func FormatTags(tags []string) string {
	if len(tags) == 0 {
		return "No tags yet"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Tags (%d)\n\n", len(tags))
	for _, t := range tags {
		fmt.Fprintf(&sb, "- %s\n", t)
	}
	return sb.String()
}

// FormatBookmark formats a single bookmark as markdown.
func FormatBookmark(r record.Record) string {
	var sb strings.Builder
	formatBookmark(&sb, 0, r, "")
	return sb.String()
}

func writeFacetLine(sb *strings.Builder, label string, facets []catalog.FacetCount) {
	if len(facets) == 0 {
		return
	}
	more := 0
	if len(facets) > maxFacetLines {
		more = len(facets) - maxFacetLines
		facets = facets[:maxFacetLines]
	}
	items := make([]string, len(facets))
	for i, f := range facets {
		items[i] = fmt.Sprintf("%s (%d)", f.Key, f.Count)
	}
	fmt.Fprintf(sb, "**%s:** %s", label, strings.Join(items, ", "))
	if more > 0 {
		fmt.Fprintf(sb, ", +%d more", more)
	}
	sb.WriteString("\n\n")
}

// formatBookmark writes one bookmark. num 0 omits the ordinal.
func formatBookmark(sb *strings.Builder, num int, r record.Record, fragment string) {
	title := ""
	if len(r.Title) > 0 {
		title = r.Title[0]
	}
	if num > 0 {
		fmt.Fprintf(sb, "### %d. %s\n", num, title)
	} else {
		fmt.Fprintf(sb, "### %s\n", title)
	}

	fmt.Fprintf(sb, "<%s>\n\n", r.ID())
	if r.IsCollection() {
		for _, p := range r.Parts() {
			fmt.Fprintf(sb, "- [%s](%s)\n", p.Title, p.URL)
		}
		sb.WriteString("\n")
	}

	meta := []string{fmt.Sprintf("**Domain:** %s", r.Domain)}
	if len(r.Tag) > 0 {
		meta = append(meta, fmt.Sprintf("**Tags:** %s", strings.Join(r.Tag, ", ")))
	}
	sb.WriteString(strings.Join(meta, " | "))
	sb.WriteString("\n\n")

	if fragment != "" {
		fmt.Fprintf(sb, "> %s\n\n", strings.ReplaceAll(fragment, "\n", " "))
	}
}
