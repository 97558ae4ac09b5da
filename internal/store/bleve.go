package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

const (
	// sourceField stores the upserted document as JSON so hits can be
	// returned exactly as written. It is stored, never indexed.
	sourceField = "source_json"

	// idSort is bleve's document ID sort key.
	idSort = "_id"

	indexSuffix = ".bleve"
)

// Options configures a BleveStore.
type Options struct {
	// DataDir holds <Collection>.bleve and the lock file. Ignored when
	// InMemory is set.
	DataDir    string
	Collection string
	InMemory   bool

	// FragmentSize is the highlight fragment length in bytes.
	FragmentSize int
	// PreTag and PostTag surround highlighted terms.
	PreTag  string
	PostTag string

	// MaxCursors bounds concurrently open cursors (default 500).
	MaxCursors int
	// MaxCursorLease caps any cursor lease (default 1h).
	MaxCursorLease time.Duration

	Logger *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Collection == "" {
		o.Collection = "bookmarks"
	}
	if o.FragmentSize <= 0 {
		o.FragmentSize = 300
	}
	if o.PreTag == "" {
		o.PreTag = "<mark>"
	}
	if o.PostTag == "" {
		o.PostTag = "</mark>"
	}
	if o.MaxCursors <= 0 {
		o.MaxCursors = 500
	}
	if o.MaxCursorLease <= 0 {
		o.MaxCursorLease = time.Hour
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// BleveStore implements DocumentStore on an embedded bleve index holding a
// single collection.
type BleveStore struct {
	mu          sync.RWMutex
	index       bleve.Index
	opts        Options
	path        string
	lock        *FileLock
	cursors     *cursorRegistry
	highlighter string
	closed      bool
	logger      *slog.Logger
}

// New opens the store. On disk it takes the data directory lock and opens
// the collection if it already exists; a lock held by another process is a
// connection error. In memory the collection starts absent.
func New(opts Options) (*BleveStore, error) {
	opts.setDefaults()

	s := &BleveStore{
		opts:        opts,
		cursors:     newCursorRegistry(opts.MaxCursors, opts.MaxCursorLease, opts.Logger),
		highlighter: registerHighlighter(opts.FragmentSize, opts.PreTag, opts.PostTag),
		logger:      opts.Logger,
	}

	if opts.InMemory {
		return s, nil
	}

	if opts.DataDir == "" {
		return nil, bmerrors.ConfigError("store data directory is not set", nil)
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, bmerrors.ConnectionError("cannot create data directory", err).
			WithDetail("data_dir", opts.DataDir)
	}

	lock := NewFileLock(opts.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, bmerrors.ConnectionError("cannot lock data directory", err).
			WithDetail("data_dir", opts.DataDir)
	}
	if !acquired {
		return nil, bmerrors.ConnectionError("data directory is in use by another process", nil).
			WithDetail("lock", lock.Path())
	}
	s.lock = lock
	s.path = filepath.Join(opts.DataDir, opts.Collection+indexSuffix)

	if _, err := os.Stat(s.path); err == nil {
		if verr := validateIndexIntegrity(s.path); verr != nil {
			_ = lock.Unlock()
			return nil, bmerrors.New(bmerrors.ErrCodeCorruptIndex, "collection index is corrupt", verr).
				WithDetail("path", s.path).
				WithSuggestion("Restore from an export: drop, create, then import")
		}
		idx, err := bleve.Open(s.path)
		if err != nil {
			_ = lock.Unlock()
			return nil, bmerrors.ConnectionError("cannot open collection", err).
				WithDetail("path", s.path)
		}
		s.index = idx
		s.logger.Debug("collection_opened", slog.String("path", s.path))
	}

	return s, nil
}

// validateIndexIntegrity checks that index_meta.json exists and parses.
func validateIndexIntegrity(path string) error {
	data, err := os.ReadFile(filepath.Join(path, "index_meta.json"))
	if err != nil {
		return fmt.Errorf("index_meta.json unreadable: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// buildMapping turns a Schema into a bleve index mapping with the custom
// analysis chain registered.
func buildMapping(schema Schema) (*mapping.IndexMappingImpl, error) {
	if _, err := ParseStemOverrides(schema.StemOverrides); err != nil {
		return nil, bmerrors.ValidationError("invalid stem override rules", err)
	}

	indexMapping := bleve.NewIndexMapping()

	rules := append([]string{}, schema.StemOverrides...)
	if err := indexMapping.AddCustomTokenFilter(stemOverrideInstance, map[string]interface{}{
		"type":  StemOverrideName,
		"rules": rules,
	}); err != nil {
		return nil, fmt.Errorf("failed to add stem override filter: %w", err)
	}

	if err := indexMapping.AddCustomAnalyzer(AnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			en.PossessiveName,
			lowercase.Name,
			en.StopName,
			stemOverrideInstance,
			porter.Name,
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	doc := bleve.NewDocumentStaticMapping()
	for _, f := range schema.Fields {
		var fm *mapping.FieldMapping
		switch f.Kind {
		case FieldText:
			fm = bleve.NewTextFieldMapping()
			fm.Analyzer = AnalyzerName
			// Stored with term vectors so hits can be highlighted.
			fm.Store = true
			fm.IncludeTermVectors = true
		case FieldKeyword:
			fm = bleve.NewKeywordFieldMapping()
			fm.Store = false
			fm.DocValues = true
		default:
			return nil, fmt.Errorf("field %q has unknown kind %d", f.Name, f.Kind)
		}
		fm.IncludeInAll = false
		doc.AddFieldMappingsAt(f.Name, fm)
	}

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	source.IncludeTermVectors = false
	source.DocValues = false
	doc.AddFieldMappingsAt(sourceField, source)

	indexMapping.DefaultMapping = doc
	indexMapping.DefaultAnalyzer = AnalyzerName
	indexMapping.IndexDynamic = false
	indexMapping.StoreDynamic = false
	indexMapping.DocValuesDynamic = false
	if schema.DefaultField != "" {
		indexMapping.DefaultField = schema.DefaultField
	}

	return indexMapping, nil
}

// CreateCollection creates the collection with the given schema.
func (s *BleveStore) CreateCollection(ctx context.Context, schema Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}
	if s.index != nil {
		return bmerrors.CollectionExistsError(s.opts.Collection)
	}

	indexMapping, err := buildMapping(schema)
	if err != nil {
		return err
	}

	var idx bleve.Index
	if s.opts.InMemory {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		idx, err = bleve.New(s.path, indexMapping)
	}
	if err != nil {
		if stderrors.Is(err, bleve.ErrorIndexPathExists) {
			return bmerrors.CollectionExistsError(s.opts.Collection)
		}
		return bmerrors.InternalError("failed to create collection", err)
	}

	s.index = idx
	s.logger.Info("collection_created",
		slog.String("collection", s.opts.Collection),
		slog.Bool("in_memory", s.opts.InMemory),
		slog.Int("fields", len(schema.Fields)))
	return nil
}

// DropCollection deletes the collection and everything in it.
func (s *BleveStore) DropCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}
	if s.index == nil {
		return bmerrors.CollectionMissingError(s.opts.Collection)
	}

	s.cursors.purge()
	closeErr := s.index.Close()
	s.index = nil

	if !s.opts.InMemory {
		if err := os.RemoveAll(s.path); err != nil {
			return bmerrors.InternalError("failed to remove collection", err).
				WithDetail("path", s.path)
		}
	}
	if closeErr != nil {
		s.logger.Warn("collection_close_failed", slog.String("error", closeErr.Error()))
	}

	s.logger.Info("collection_dropped", slog.String("collection", s.opts.Collection))
	return nil
}

// Exists reports whether the collection exists.
func (s *BleveStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, errClosed()
	}
	return s.index != nil, nil
}

// OpenCursor starts a scan over every document.
func (s *BleveStore) OpenCursor(ctx context.Context, req CursorRequest, ttl time.Duration) (string, *Page, error) {
	if req.Size <= 0 {
		return "", nil, bmerrors.ValidationError("cursor page size must be positive", nil)
	}

	c := &cursor{
		sort: append(append([]string{}, req.Sort...), idSort),
		size: req.Size,
	}

	page, err := s.nextPage(ctx, c)
	if err != nil {
		return "", nil, err
	}

	id := s.cursors.open(c, ttl)
	s.logger.Debug("cursor_opened",
		slog.String("cursor_id", id),
		slog.Int("first_page", len(page.Hits)))
	return id, page, nil
}

// AdvanceCursor returns the page after the last one served.
func (s *BleveStore) AdvanceCursor(ctx context.Context, id string, ttl time.Duration) (*Page, error) {
	c, err := s.cursors.lease(id, ttl)
	if err != nil {
		return nil, err
	}
	return s.nextPage(ctx, c)
}

// CloseCursor releases the cursor.
func (s *BleveStore) CloseCursor(ctx context.Context, id string) error {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return errClosed()
	}
	s.cursors.release(id)
	return nil
}

func (s *BleveStore) nextPage(ctx context.Context, c *cursor) (*Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), c.size, 0, false)
	req.SortBy(c.sort)
	req.Fields = []string{sourceField}
	if c.after != nil {
		req.SearchAfter = c.after
	}

	res, err := s.search(ctx, req)
	if err != nil {
		return nil, err
	}

	page := &Page{Hits: make([]Hit, 0, len(res.Hits))}
	for _, dm := range res.Hits {
		page.Hits = append(page.Hits, toHit(dm, ""))
	}
	if n := len(res.Hits); n > 0 {
		c.after = res.Hits[n-1].Sort
	}
	return page, nil
}

// BulkUpsert indexes every op in a single batch. Items the store rejects
// are flagged individually; the rest are still written.
func (s *BleveStore) BulkUpsert(ctx context.Context, ops []UpsertOp) (*BulkResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.collection()
	if err != nil {
		return nil, err
	}

	resp := &BulkResponse{Items: make([]BulkItem, len(ops))}
	if len(ops) == 0 {
		return resp, nil
	}

	batch := idx.NewBatch()
	for i, op := range ops {
		resp.Items[i].ID = op.ID
		doc, err := withSource(op.Document)
		if err == nil {
			err = batch.Index(op.ID, doc)
		}
		if err != nil {
			resp.Items[i].Failed = true
			resp.Items[i].Error = err.Error()
			resp.Errors = true
		}
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			if stderrors.Is(err, bleve.ErrorIndexClosed) {
				return nil, errClosed()
			}
			for i := range resp.Items {
				if !resp.Items[i].Failed {
					resp.Items[i].Failed = true
					resp.Items[i].Error = err.Error()
				}
			}
			resp.Errors = true
			s.logger.Error("bulk_batch_failed",
				slog.Int("ops", len(ops)),
				slog.String("error", err.Error()))
		}
	}

	return resp, nil
}

// withSource copies doc and adds its JSON encoding as the stored source.
func withSource(doc map[string]any) (map[string]any, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document cannot be encoded: %w", err)
	}
	out := make(map[string]any, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[sourceField] = string(raw)
	return out, nil
}

// Query runs a faceted, paginated search.
func (s *BleveStore) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	q, err := parseQuery(req.QueryString)
	if err != nil {
		return nil, err
	}

	sr := bleve.NewSearchRequestOptions(q, req.Size, req.From, false)
	if len(req.Sort) > 0 {
		sr.SortBy(req.Sort)
	}
	sr.Fields = []string{sourceField}
	for _, f := range req.Facets {
		sr.AddFacet(f.Name, bleve.NewFacetRequest(f.Field, f.Size))
	}
	highlightField := ""
	if req.Highlight != nil {
		highlightField = req.Highlight.Field
		sr.Highlight = bleve.NewHighlightWithStyle(s.highlighter)
		sr.Highlight.AddField(highlightField)
		sr.IncludeLocations = true
	}

	res, err := s.search(ctx, sr)
	if err != nil {
		return nil, err
	}

	out := &QueryResponse{
		Total:  res.Total,
		Hits:   make([]Hit, 0, len(res.Hits)),
		Facets: make(map[string][]FacetBucket, len(req.Facets)),
	}
	for _, dm := range res.Hits {
		out.Hits = append(out.Hits, toHit(dm, highlightField))
	}
	for _, f := range req.Facets {
		buckets := []FacetBucket{}
		if fr, ok := res.Facets[f.Name]; ok && fr != nil && fr.Terms != nil {
			for _, t := range fr.Terms.Terms() {
				buckets = append(buckets, FacetBucket{Key: t.Term, Count: t.Count})
			}
		}
		out.Facets[f.Name] = buckets
	}
	return out, nil
}

// Get looks a document up by ID.
func (s *BleveStore) Get(ctx context.Context, id string) (*Hit, error) {
	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{id}), 1, 0, false)
	req.Fields = []string{sourceField}

	res, err := s.search(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}
	hit := toHit(res.Hits[0], "")
	return &hit, nil
}

// Close releases the index and the data directory lock.
func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.cursors.purge()

	var err error
	if s.index != nil {
		err = s.index.Close()
		s.index = nil
	}
	if s.lock != nil {
		if uerr := s.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}

// OpenCursors returns the number of live cursors.
func (s *BleveStore) OpenCursors() int {
	return s.cursors.count()
}

// search runs req under the read lock with the store's error mapping.
func (s *BleveStore) search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.collection()
	if err != nil {
		return nil, err
	}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		switch {
		case stderrors.Is(err, bleve.ErrorIndexClosed):
			return nil, errClosed()
		case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
			return nil, bmerrors.ConnectionError("search interrupted", err)
		default:
			return nil, bmerrors.New(bmerrors.ErrCodeSearchFailed, "search failed", err)
		}
	}
	return res, nil
}

// collection returns the open index. Callers hold s.mu.
func (s *BleveStore) collection() (bleve.Index, error) {
	if s.closed {
		return nil, errClosed()
	}
	if s.index == nil {
		return nil, bmerrors.CollectionMissingError(s.opts.Collection)
	}
	return s.index, nil
}

// parseQuery maps blank input to match-all and anything else to a query
// string query, rejecting syntax errors up front.
func parseQuery(q string) (query.Query, error) {
	if strings.TrimSpace(q) == "" {
		return bleve.NewMatchAllQuery(), nil
	}
	qsq := bleve.NewQueryStringQuery(q)
	if _, err := qsq.Parse(); err != nil {
		return nil, bmerrors.New(bmerrors.ErrCodeInvalidQuery, "query could not be parsed", err).
			WithDetail("query", q)
	}
	return qsq, nil
}

// toHit converts a bleve match. The highlight fragment is kept only when
// the field had term matches; otherwise bleve would hand back the opening
// of the field unmarked.
func toHit(dm *search.DocumentMatch, highlightField string) Hit {
	h := Hit{
		ID:    dm.ID,
		Score: dm.Score,
		Sort:  dm.Sort,
	}
	if raw, ok := dm.Fields[sourceField].(string); ok {
		var src map[string]any
		if err := json.Unmarshal([]byte(raw), &src); err == nil {
			h.Source = src
		}
	}
	if highlightField != "" && len(dm.Locations[highlightField]) > 0 {
		if frags := dm.Fragments[highlightField]; len(frags) > 0 {
			h.Highlight = map[string][]string{highlightField: frags[:1]}
		}
	}
	return h
}

func errClosed() error {
	return bmerrors.ConnectionError("document store is closed", nil)
}

var _ DocumentStore = (*BleveStore)(nil)
