// Package catalog is the bookmark search and indexing layer.
//
// It owns the collection schema (SchemaManager), full-corpus backup
// (Exporter), batched writes (Importer) and faceted search (QueryEngine).
// Every component runs against a store.DocumentStore and decodes what the
// store returns through record.Decode, so a malformed document surfaces as
// a DecodeError instead of a zero value.
package catalog

import (
	stderrors "errors"
	"log/slog"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

// Option configures catalog components.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// annotate adds a detail to err when it is a BookmarkError.
func annotate(err error, key, value string) error {
	var be *bmerrors.BookmarkError
	if stderrors.As(err, &be) {
		return be.WithDetail(key, value)
	}
	return err
}
