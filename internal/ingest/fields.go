// Package ingest turns a submitted bookmark form into a record.Record.
//
// Submissions are strict: only collection_title, tag, url, title and
// content are accepted. When no content is supplied the pipeline fetches
// every URL concurrently and indexes the visible text of the pages that
// could be fetched.
package ingest

import (
	"sort"
	"strings"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

// Submission field names.
const (
	FieldCollectionTitle = "collection_title"
	FieldTag             = "tag"
	FieldURL             = "url"
	FieldTitle           = "title"
	FieldContent         = "content"
)

var singleValued = map[string]bool{
	FieldCollectionTitle: true,
	FieldContent:         true,
}

var knownFields = map[string]bool{
	FieldCollectionTitle: true,
	FieldTag:             true,
	FieldURL:             true,
	FieldTitle:           true,
	FieldContent:         true,
}

// Submission is a normalized bookmark form.
type Submission struct {
	CollectionTitle string
	Tags            []string
	URLs            []string
	Titles          []string
	Content         string
}

// ParseFields normalizes raw form fields: values are trimmed and blank
// ones dropped. Unknown field names, and repeated collection_title or
// content values, are validation errors.
func ParseFields(fields map[string][]string) (Submission, error) {
	var sub Submission

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !knownFields[name] {
			return Submission{}, bmerrors.New(bmerrors.ErrCodeUnknownField, "unknown field", nil).
				WithDetail("field", name)
		}

		values := nonBlank(fields[name])
		if singleValued[name] && len(values) > 1 {
			return Submission{}, bmerrors.ValidationError("field may only be given once", nil).
				WithDetail("field", name)
		}

		switch name {
		case FieldCollectionTitle:
			if len(values) == 1 {
				sub.CollectionTitle = values[0]
			}
		case FieldContent:
			if len(values) == 1 {
				sub.Content = values[0]
			}
		case FieldTag:
			sub.Tags = values
		case FieldURL:
			sub.URLs = values
		case FieldTitle:
			sub.Titles = values
		}
	}

	return sub, nil
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NormalizeTags lowercases, de-duplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
