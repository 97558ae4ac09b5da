package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/bookmarks/internal/metrics"
	"github.com/Aman-CERP/bookmarks/internal/record"
	"github.com/Aman-CERP/bookmarks/internal/store"
)

// ExportConfig controls the export cursor.
type ExportConfig struct {
	// CursorTTL is the lease requested on open and on every advance.
	CursorTTL time.Duration
	// BatchSize is the number of records per cursor page.
	BatchSize int
}

// DefaultExportConfig returns a five minute lease and 500 records a page.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{CursorTTL: 5 * time.Minute, BatchSize: 500}
}

// Exporter streams the whole collection in title_sort order.
type Exporter struct {
	store  store.DocumentStore
	cfg    ExportConfig
	logger *slog.Logger
}

// NewExporter returns an Exporter. Zero config fields take their defaults.
func NewExporter(s store.DocumentStore, cfg ExportConfig, opts ...Option) *Exporter {
	def := DefaultExportConfig()
	if cfg.CursorTTL <= 0 {
		cfg.CursorTTL = def.CursorTTL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	o := buildOptions(opts)
	return &Exporter{store: s, cfg: cfg, logger: o.logger}
}

// Walk calls fn for every record in the collection.
//
// The cursor is released once the scan is exhausted. A store failure aborts
// the walk with the cursor left to lapse; the caller restarts from scratch.
// A decode failure or an error from fn releases the cursor before returning.
func (e *Exporter) Walk(ctx context.Context, fn func(record.Record) error) error {
	start := time.Now()
	e.logger.Info("export_started", slog.Int("batch_size", e.cfg.BatchSize))

	id, page, err := e.store.OpenCursor(ctx, store.CursorRequest{
		Sort: []string{record.FieldTitleSort},
		Size: e.cfg.BatchSize,
	}, e.cfg.CursorTTL)
	if err != nil {
		return err
	}

	count := 0
	for len(page.Hits) > 0 {
		for _, hit := range page.Hits {
			rec, err := record.Decode(hit.Source)
			if err != nil {
				e.release(ctx, id)
				return annotate(err, "id", hit.ID)
			}
			if err := fn(rec); err != nil {
				e.release(ctx, id)
				return err
			}
			count++
			metrics.ExportRecordsTotal.Inc()
		}

		page, err = e.store.AdvanceCursor(ctx, id, e.cfg.CursorTTL)
		if err != nil {
			e.logger.Warn("export_aborted",
				slog.Int("records", count),
				slog.String("error", err.Error()))
			return err
		}
	}

	if err := e.store.CloseCursor(ctx, id); err != nil {
		return err
	}

	e.logger.Info("export_completed",
		slog.Int("records", count),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Export collects every record into a slice.
func (e *Exporter) Export(ctx context.Context) ([]record.Record, error) {
	out := []record.Record{}
	err := e.Walk(ctx, func(r record.Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Exporter) release(ctx context.Context, id string) {
	if err := e.store.CloseCursor(ctx, id); err != nil {
		e.logger.Debug("cursor_release_failed",
			slog.String("cursor_id", id),
			slog.String("error", err.Error()))
	}
}
