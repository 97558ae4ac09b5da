package catalog

import (
	"context"
	"fmt"
	"log/slog"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/metrics"
	"github.com/Aman-CERP/bookmarks/internal/record"
	"github.com/Aman-CERP/bookmarks/internal/store"
)

// Importer upserts records keyed by identity.
//
// Two imports racing on the same identity resolve last-write-wins in the
// store. A record whose url[0] changed is a different document; the one
// under the old identity stays until the collection is recreated.
type Importer struct {
	store  store.DocumentStore
	logger *slog.Logger
}

// NewImporter returns an Importer for s.
func NewImporter(s store.DocumentStore, opts ...Option) *Importer {
	o := buildOptions(opts)
	return &Importer{store: s, logger: o.logger}
}

// Import validates every record, then submits them as one batch and
// returns how many were written.
//
// If the store flags any operation as failed the result is an
// AmbiguousBulkFailure: some records may have been written and no attempt
// is made to say which. Nothing is retried or rolled back.
func (im *Importer) Import(ctx context.Context, recs []record.Record) (int, error) {
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			metrics.ImportRecordsTotal.WithLabelValues("error").Add(float64(len(recs)))
			return 0, annotate(err, "record", fmt.Sprintf("%d", i))
		}
	}
	if len(recs) == 0 {
		return 0, nil
	}

	ops := make([]store.UpsertOp, len(recs))
	for i, r := range recs {
		ops[i] = store.UpsertOp{ID: r.ID(), Document: record.Encode(r)}
	}

	resp, err := im.store.BulkUpsert(ctx, ops)
	if err != nil {
		metrics.ImportRecordsTotal.WithLabelValues("error").Add(float64(len(recs)))
		return 0, err
	}

	if bulkFailed(resp) {
		metrics.ImportRecordsTotal.WithLabelValues("ambiguous").Add(float64(len(recs)))
		im.logger.Warn("import_ambiguous", slog.Int("submitted", len(recs)))
		return 0, bmerrors.AmbiguousBulkFailure(len(recs))
	}

	metrics.ImportRecordsTotal.WithLabelValues("ok").Add(float64(len(recs)))
	im.logger.Info("import_completed", slog.Int("records", len(recs)))
	return len(recs), nil
}

func bulkFailed(resp *store.BulkResponse) bool {
	if resp == nil || resp.Errors {
		return true
	}
	for _, item := range resp.Items {
		if item.Failed {
			return true
		}
	}
	return false
}
