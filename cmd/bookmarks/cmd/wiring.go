package cmd

import (
	"net/http"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/ingest"
	"github.com/Aman-CERP/bookmarks/internal/store"
)

// openStore opens the configured document store. The caller closes it.
func (a *app) openStore() (*store.BleveStore, error) {
	return store.New(store.Options{
		DataDir:      a.cfg.Store.DataDir,
		Collection:   a.cfg.Store.Collection,
		InMemory:     a.cfg.Store.InMemory,
		FragmentSize: a.cfg.Search.FragmentSize,
		PreTag:       a.cfg.Search.PreTag,
		PostTag:      a.cfg.Search.PostTag,
		Logger:       a.logger,
	})
}

func (a *app) queryEngine(s store.DocumentStore) *catalog.QueryEngine {
	return catalog.NewQueryEngine(s, catalog.QueryConfig{
		PageSize:  a.cfg.Search.PageSize,
		FacetSize: a.cfg.Search.FacetSize,
		PreTag:    a.cfg.Search.PreTag,
		PostTag:   a.cfg.Search.PostTag,
	}, catalog.WithLogger(a.logger))
}

func (a *app) exporter(s store.DocumentStore) *catalog.Exporter {
	return catalog.NewExporter(s, catalog.ExportConfig{
		CursorTTL: a.cfg.Export.CursorTTL,
		BatchSize: a.cfg.Export.BatchSize,
	}, catalog.WithLogger(a.logger))
}

func (a *app) importer(s store.DocumentStore) *catalog.Importer {
	return catalog.NewImporter(s, catalog.WithLogger(a.logger))
}

// pipeline builds records from submitted fields. Without fetch, records
// without content are stored with empty content.
func (a *app) pipeline(fetch bool) *ingest.Pipeline {
	if !fetch {
		return ingest.NewPipeline(nil, a.logger)
	}
	fetcher := ingest.NewHTTPFetcher(&http.Client{}, ingest.FetchConfig{
		Timeout:          a.cfg.Ingest.FetchTimeout,
		MaxConcurrent:    a.cfg.Ingest.MaxConcurrentFetches,
		UserAgent:        a.cfg.Ingest.UserAgent,
		MaxContentLength: a.cfg.Ingest.MaxContentLength,
	}, a.logger)
	return ingest.NewPipeline(fetcher, a.logger)
}

// closeStore closes s, logging rather than returning a close failure.
func (a *app) closeStore(s *store.BleveStore) {
	if err := s.Close(); err != nil {
		a.logger.Warn("store_close_failed", "error", err.Error())
	}
}
