package mcp

import (
	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/ingest"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// SearchInput defines the input schema for the search_bookmarks tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"query string over bookmark content, e.g. 'rust -python' or 'tag:go'; empty matches every bookmark"`
	Page  int    `json:"page,omitempty" jsonschema:"1-indexed result page, default 1"`
}

// SearchOutput defines the output schema for the search_bookmarks tool.
type SearchOutput struct {
	Query   string               `json:"query"`
	Total   int                  `json:"total" jsonschema:"number of matching bookmarks across all pages"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"pages"`
	Domains []catalog.FacetCount `json:"domains" jsonschema:"domains of the matches, most frequent first"`
	Tags    []catalog.FacetCount `json:"tags" jsonschema:"tags of the matches, most frequent first"`
	Results []BookmarkOutput     `json:"results"`
	// Markdown is the page rendered for reading.
	Markdown string `json:"markdown"`
}

// BookmarkOutput is one bookmark. A single bookmark carries URL, a
// collection carries Parts.
type BookmarkOutput struct {
	Title    string        `json:"title"`
	URL      string        `json:"url,omitempty"`
	Parts    []record.Part `json:"parts,omitempty"`
	Domain   string        `json:"domain"`
	Tags     []string      `json:"tags"`
	Fragment string        `json:"fragment,omitempty" jsonschema:"matching excerpt of the page content with <mark> around matched terms"`
}

// ListTagsInput defines the input schema for the list_tags tool (no parameters).
type ListTagsInput struct{}

// ListTagsOutput defines the output schema for the list_tags tool.
type ListTagsOutput struct {
	Tags []string `json:"tags"`
}

// GetBookmarkInput defines the input schema for the get_bookmark tool.
type GetBookmarkInput struct {
	URL string `json:"url" jsonschema:"the bookmark's url, or the first url of a collection"`
}

// AddBookmarkInput defines the input schema for the add_bookmark tool.
type AddBookmarkInput struct {
	URL             []string `json:"url" jsonschema:"page urls; a collection lists its own url first"`
	Title           []string `json:"title" jsonschema:"one title per url, or one per part when collection_title is set"`
	CollectionTitle string   `json:"collection_title,omitempty" jsonschema:"makes the bookmark a collection with this title"`
	Tag             []string `json:"tag,omitempty"`
	Content         string   `json:"content,omitempty" jsonschema:"page text to index; fetched from the urls when empty"`
}

// AddBookmarkOutput defines the output schema for the add_bookmark tool.
type AddBookmarkOutput struct {
	Bookmark      BookmarkOutput `json:"bookmark"`
	Fetched       bool           `json:"fetched"`
	FetchFailures int            `json:"fetch_failures"`
}

// fields converts the input to submission form fields.
func (in AddBookmarkInput) fields() map[string][]string {
	f := map[string][]string{
		ingest.FieldURL:   in.URL,
		ingest.FieldTitle: in.Title,
	}
	if len(in.Tag) > 0 {
		f[ingest.FieldTag] = in.Tag
	}
	if in.CollectionTitle != "" {
		f[ingest.FieldCollectionTitle] = []string{in.CollectionTitle}
	}
	if in.Content != "" {
		f[ingest.FieldContent] = []string{in.Content}
	}
	return f
}

// ToBookmarkOutput converts a record and its fragment to tool output.
func ToBookmarkOutput(r record.Record, fragment string) BookmarkOutput {
	out := BookmarkOutput{
		Domain:   r.Domain,
		Tags:     r.Tag,
		Fragment: fragment,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if len(r.Title) > 0 {
		out.Title = r.Title[0]
	}
	if r.IsCollection() {
		out.Parts = r.Parts()
	} else {
		out.URL = r.ID()
	}
	return out
}

// ToSearchOutput converts a search page to tool output.
func ToSearchOutput(query string, res *catalog.SearchResult, pageSize int) SearchOutput {
	out := SearchOutput{
		Query:   query,
		Total:   res.Total,
		Page:    res.Page,
		Pages:   res.Pages,
		Domains: catalog.RankFacets(res.Domains),
		Tags:    catalog.RankFacets(res.Tags),
		Results: make([]BookmarkOutput, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, ToBookmarkOutput(r.Record, r.Fragment))
	}
	out.Markdown = FormatSearchResults(query, res, pageSize)
	return out
}
