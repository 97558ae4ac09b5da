// Package record defines the bookmark Record, its identity rule, and the
// codec between a Record and the document shape held by the store.
//
// A Record with one title is a single bookmark. A Record with more than one
// title is a collection: Title[0] is the collection title and the remaining
// titles name its parts. URL is positionally paired with Title, and URL[0]
// is the Record's identity in the store.
package record

import (
	"fmt"
	"strings"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

// Storage field names.
const (
	FieldTitle     = "title"
	FieldTitleSort = "title_sort"
	FieldURL       = "url"
	FieldDomain    = "domain"
	FieldTag       = "tag"
	FieldContent   = "content"
)

// Record is a bookmark or a collection of bookmarks. A nil Tag and an
// empty one mean the same thing; Normalize settles on nil.
type Record struct {
	Title     []string `json:"title" yaml:"title"`
	TitleSort string   `json:"title_sort" yaml:"title_sort"`
	URL       []string `json:"url" yaml:"url"`
	Domain    string   `json:"domain" yaml:"domain"`
	Tag       []string `json:"tag" yaml:"tag"`
	Content   string   `json:"content" yaml:"content"`
}

// Part is one member of a collection.
type Part struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ID returns the Record's identity, URL[0]. Reordering URL changes the
// identity; the store then holds a second document and the old one stays
// under its former key.
func (r Record) ID() string {
	if len(r.URL) == 0 {
		return ""
	}
	return r.URL[0]
}

// IsCollection reports whether the Record groups several parts.
func (r Record) IsCollection() bool {
	return len(r.Title) > 1
}

// Parts pairs Title[i] with URL[i] for every i >= 1. A single bookmark has
// no parts.
func (r Record) Parts() []Part {
	if !r.IsCollection() {
		return nil
	}
	n := min(len(r.Title), len(r.URL))
	parts := make([]Part, 0, n-1)
	for i := 1; i < n; i++ {
		parts = append(parts, Part{Title: r.Title[i], URL: r.URL[i]})
	}
	return parts
}

// Normalize returns r in the form Decode produces, so a record compares
// equal to itself after a trip through the store.
func (r Record) Normalize() Record {
	if len(r.Tag) == 0 {
		r.Tag = nil
	}
	return r
}

// Validate checks the shape invariants: at least one title, and exactly
// one URL per title.
func (r Record) Validate() error {
	if len(r.Title) == 0 {
		return bmerrors.New(bmerrors.ErrCodeMissingField, "record has no title", nil).
			WithDetail("field", FieldTitle)
	}
	if len(r.URL) == 0 {
		return bmerrors.New(bmerrors.ErrCodeMissingField, "record has no url", nil).
			WithDetail("field", FieldURL)
	}
	if len(r.Title) != len(r.URL) {
		return bmerrors.ValidationError(
			fmt.Sprintf("record has %d titles but %d urls", len(r.Title), len(r.URL)), nil).
			WithDetail("id", r.ID())
	}
	if strings.TrimSpace(r.URL[0]) == "" {
		return bmerrors.New(bmerrors.ErrCodeMissingField, "record url[0] is empty", nil).
			WithDetail("field", FieldURL)
	}
	return nil
}

// DomainOf returns the host component of a URL, the third "/"-separated
// segment. Inputs without one (no scheme, bare words) are returned as-is.
func DomainOf(url string) string {
	parts := strings.SplitN(url, "/", 4)
	if len(parts) >= 3 && parts[2] != "" {
		return parts[2]
	}
	return url
}
