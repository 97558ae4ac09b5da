package catalog

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/metrics"
	"github.com/Aman-CERP/bookmarks/internal/record"
	"github.com/Aman-CERP/bookmarks/internal/store"
)

// Facet names in SearchResult.
const (
	FacetDomain = "domain"
	FacetTag    = "tag"
)

// QueryConfig controls pagination, facets and highlighting.
type QueryConfig struct {
	PageSize  int
	FacetSize int
	PreTag    string
	PostTag   string
}

// DefaultQueryConfig returns 25 hits a page, 500 buckets a facet and
// <mark> highlighting.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		PageSize:  25,
		FacetSize: 500,
		PreTag:    "<mark>",
		PostTag:   "</mark>",
	}
}

// Result is one search hit: the record and its stitched content fragment,
// empty when nothing in content matched.
type Result struct {
	Record   record.Record
	Fragment string
}

// SearchResult is one page of search results with facet tallies over every
// match, not just the page.
type SearchResult struct {
	Domains map[string]int
	Tags    map[string]int
	Results []Result
	Total   int
	// Page is 1-indexed. Pages is zero when nothing matched.
	Page  int
	Pages int
}

// QueryEngine serves faceted search and tag listing.
type QueryEngine struct {
	store  store.DocumentStore
	cfg    QueryConfig
	logger *slog.Logger
}

// NewQueryEngine returns a QueryEngine. Zero config fields take their
// defaults.
func NewQueryEngine(s store.DocumentStore, cfg QueryConfig, opts ...Option) *QueryEngine {
	def := DefaultQueryConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.FacetSize <= 0 {
		cfg.FacetSize = def.FacetSize
	}
	if cfg.PreTag == "" {
		cfg.PreTag = def.PreTag
	}
	if cfg.PostTag == "" {
		cfg.PostTag = def.PostTag
	}
	o := buildOptions(opts)
	return &QueryEngine{store: s, cfg: cfg, logger: o.logger}
}

// Search runs q against content and returns the given 1-indexed page.
//
// A blank q matches everything. Otherwise q uses query-string syntax, so
// field-qualified terms (tag:go) and boolean operators work. Hits are
// ordered by relevance, then title_sort. A page past the end has no
// results but still reports Total and Pages.
func (e *QueryEngine) Search(ctx context.Context, q string, page int) (*SearchResult, error) {
	if page < 1 {
		return nil, bmerrors.New(bmerrors.ErrCodeInvalidPage, "page must be 1 or greater", nil).
			WithDetail("page", strconv.Itoa(page))
	}

	kind := "query"
	if strings.TrimSpace(q) == "" {
		kind = "match_all"
		q = ""
	}
	start := time.Now()

	res, err := e.store.Query(ctx, store.QueryRequest{
		QueryString: q,
		From:        offset(page, e.cfg.PageSize),
		Size:        e.cfg.PageSize,
		Sort:        []string{"-_score", record.FieldTitleSort},
		Facets: []store.FacetRequest{
			{Name: FacetDomain, Field: record.FieldDomain, Size: e.cfg.FacetSize},
			{Name: FacetTag, Field: record.FieldTag, Size: e.cfg.FacetSize},
		},
		Highlight: &store.HighlightRequest{Field: record.FieldContent},
	})
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues(bmerrors.GetCode(err)).Inc()
		return nil, err
	}

	out := &SearchResult{
		Domains: bucketCounts(res.Facets[FacetDomain]),
		Tags:    bucketCounts(res.Facets[FacetTag]),
		Results: make([]Result, 0, len(res.Hits)),
		Total:   int(res.Total),
		Page:    page,
		Pages:   pageCount(int(res.Total), e.cfg.PageSize),
	}

	for _, hit := range res.Hits {
		rec, err := record.Decode(hit.Source)
		if err != nil {
			metrics.SearchErrorsTotal.WithLabelValues(bmerrors.GetCode(err)).Inc()
			return nil, annotate(err, "id", hit.ID)
		}
		var fragment string
		if frags := hit.Highlight[record.FieldContent]; len(frags) > 0 {
			fragment = StitchFragment(frags[0], rec.Content, e.cfg.PreTag, e.cfg.PostTag)
		}
		out.Results = append(out.Results, Result{Record: rec, Fragment: fragment})
	}

	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	e.logger.Debug("search_completed",
		slog.String("kind", kind),
		slog.Int("page", page),
		slog.Int("total", out.Total),
		slog.Int("hits", len(out.Results)))
	return out, nil
}

// ListTags returns every distinct tag in ascending order, up to the facet
// size. No documents are fetched.
func (e *QueryEngine) ListTags(ctx context.Context) ([]string, error) {
	start := time.Now()
	res, err := e.store.Query(ctx, store.QueryRequest{
		Size:   0,
		Facets: []store.FacetRequest{{Name: FacetTag, Field: record.FieldTag, Size: e.cfg.FacetSize}},
	})
	if err != nil {
		metrics.SearchErrorsTotal.WithLabelValues(bmerrors.GetCode(err)).Inc()
		return nil, err
	}

	buckets := res.Facets[FacetTag]
	tags := make([]string, 0, len(buckets))
	for _, b := range buckets {
		tags = append(tags, b.Key)
	}
	sort.Strings(tags)

	metrics.SearchDuration.WithLabelValues("tags").Observe(time.Since(start).Seconds())
	return tags, nil
}

// Lookup returns the record with the given identity, or nil if there is
// none.
func (e *QueryEngine) Lookup(ctx context.Context, id string) (*record.Record, error) {
	hit, err := e.store.Get(ctx, id)
	if err != nil || hit == nil {
		return nil, err
	}
	rec, err := record.Decode(hit.Source)
	if err != nil {
		return nil, annotate(err, "id", id)
	}
	return &rec, nil
}

func bucketCounts(buckets []store.FacetBucket) map[string]int {
	out := make(map[string]int, len(buckets))
	for _, b := range buckets {
		out[b.Key] = b.Count
	}
	return out
}

// offset is the first hit of page, saturating rather than overflowing for
// absurd page numbers.
func offset(page, size int) int {
	if page-1 > math.MaxInt32/size {
		return math.MaxInt32
	}
	return (page - 1) * size
}

func pageCount(total, size int) int {
	return (total + size - 1) / size
}
