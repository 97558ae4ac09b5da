package ingest

import (
	"context"
	"log/slog"
	"strconv"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// Result is a record built from a submission.
type Result struct {
	Record record.Record
	// Fetched is true when content came from the bookmark's URLs.
	Fetched bool
	// FetchFailures counts URLs whose content could not be fetched.
	FetchFailures int
}

// Pipeline builds records from submissions.
type Pipeline struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewPipeline returns a Pipeline. With a nil fetcher, submissions without
// content are stored with empty content.
func NewPipeline(fetcher Fetcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{fetcher: fetcher, logger: logger}
}

// BuildFromFields parses raw form fields and builds a record from them.
func (p *Pipeline) BuildFromFields(ctx context.Context, fields map[string][]string) (*Result, error) {
	sub, err := ParseFields(fields)
	if err != nil {
		return nil, err
	}
	return p.Build(ctx, sub)
}

// Build derives a record from sub.
//
// A collection title is prepended to the titles and becomes the sort key;
// it pairs with the first URL, so a collection needs one more URL than it
// has part titles. Without one, titles and URLs pair one to one.
func (p *Pipeline) Build(ctx context.Context, sub Submission) (*Result, error) {
	if len(sub.URLs) == 0 {
		return nil, missing(FieldURL)
	}
	if len(sub.Titles) == 0 {
		return nil, missing(FieldTitle)
	}

	titles := append([]string(nil), sub.Titles...)
	sortKey := titles[0]
	wantURLs := len(titles)
	if sub.CollectionTitle != "" {
		titles = append([]string{sub.CollectionTitle}, titles...)
		sortKey = sub.CollectionTitle
		wantURLs = len(titles)
	}
	if len(sub.URLs) != wantURLs {
		return nil, bmerrors.ValidationError("each title needs exactly one url", nil).
			WithDetail("titles", strconv.Itoa(len(titles))).
			WithDetail("urls", strconv.Itoa(len(sub.URLs))).
			WithSuggestion("A collection pairs its title with the first url; give one url per part after it")
	}

	res := &Result{
		Record: record.Record{
			Title:     titles,
			TitleSort: sortKey,
			URL:       append([]string(nil), sub.URLs...),
			Domain:    record.DomainOf(sub.URLs[0]),
			Tag:       NormalizeTags(sub.Tags),
			Content:   sub.Content,
		},
	}

	if sub.Content == "" && p.fetcher != nil {
		fr := p.fetcher.Fetch(ctx, sub.URLs)
		res.Record.Content = fr.Content
		res.Fetched = true
		res.FetchFailures = fr.Failures
		if fr.Failures > 0 {
			p.logger.Info("fetch_partial",
				slog.String("id", res.Record.ID()),
				slog.Int("urls", len(sub.URLs)),
				slog.Int("failures", fr.Failures))
		}
	}

	if err := res.Record.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func missing(field string) error {
	return bmerrors.New(bmerrors.ErrCodeMissingField, "field is required", nil).
		WithDetail("field", field)
}
