// Package store is the document store behind the bookmark catalog.
//
// DocumentStore is the port the catalog depends on: collection lifecycle,
// leased cursors for full scans, batched upserts, and faceted queries.
// BleveStore implements it on an embedded bleve index, either on disk under
// a locked data directory or in memory.
package store

import (
	"context"
	"time"
)

// FieldKind selects how a field is indexed.
type FieldKind int

const (
	// FieldText is analyzed with the schema's analysis chain.
	FieldText FieldKind = iota
	// FieldKeyword is indexed verbatim for exact match, facets and sorting.
	FieldKeyword
)

// Field declares one document field.
type Field struct {
	Name string
	Kind FieldKind
}

// Schema describes a collection: its fields, the field unqualified query
// terms search, and the stem override rules of the text analysis chain.
//
// Text fields are analyzed as: unicode tokenizer, possessive stripping,
// lowercase, English stop words, stem overrides, porter stemmer.
type Schema struct {
	Fields       []Field
	DefaultField string
	// StemOverrides are rules like "animal, animals => animal".
	StemOverrides []string
}

// Hit is one document returned by a query or cursor page.
type Hit struct {
	ID    string
	Score float64
	// Source is the document as it was upserted. Nil when the store could
	// not produce it.
	Source map[string]any
	// Highlight holds at most one fragment per highlighted field, present
	// only when the field actually matched.
	Highlight map[string][]string
	// Sort is the hit's opaque sort key.
	Sort []string
}

// Page is one batch of cursor results. An empty page ends the scan.
type Page struct {
	Hits []Hit
}

// CursorRequest opens a full scan over every document.
type CursorRequest struct {
	// Sort fields, ascending. Document ID is appended as the final tie-break.
	Sort []string
	// Size is the number of hits per page.
	Size int
}

// UpsertOp inserts or replaces the document with the given ID.
type UpsertOp struct {
	ID       string
	Document map[string]any
}

// BulkItem is the outcome of one UpsertOp.
type BulkItem struct {
	ID     string
	Failed bool
	Error  string
}

// BulkResponse reports per-item outcomes plus an aggregate flag set when
// any item failed.
type BulkResponse struct {
	Items  []BulkItem
	Errors bool
}

// FacetRequest asks for the top Size values of Field, reported as Name.
type FacetRequest struct {
	Name  string
	Field string
	Size  int
}

// HighlightRequest asks for a fragment of Field.
type HighlightRequest struct {
	Field string
}

// QueryRequest is a faceted, paginated search.
type QueryRequest struct {
	// QueryString uses the store's query-string syntax. Empty matches all.
	QueryString string
	From        int
	Size        int
	// Sort entries are field names; "-" prefixes descending and "_score"
	// is relevance.
	Sort      []string
	Facets    []FacetRequest
	Highlight *HighlightRequest
}

// FacetBucket is one value of a facet with its document count.
type FacetBucket struct {
	Key   string
	Count int
}

// QueryResponse carries hits, facets keyed by FacetRequest.Name, and the
// total match count regardless of From and Size.
type QueryResponse struct {
	Total  uint64
	Hits   []Hit
	Facets map[string][]FacetBucket
}

// DocumentStore is the document collection the catalog runs against.
type DocumentStore interface {
	// CreateCollection fails with a schema error if the collection exists.
	CreateCollection(ctx context.Context, schema Schema) error
	// DropCollection fails with a schema error if the collection is absent.
	DropCollection(ctx context.Context) error
	// Exists reports whether the collection exists.
	Exists(ctx context.Context) (bool, error)

	// OpenCursor starts a full scan leased for ttl and returns its first page.
	OpenCursor(ctx context.Context, req CursorRequest, ttl time.Duration) (string, *Page, error)
	// AdvanceCursor returns the next page and renews the lease. An unknown
	// or lapsed cursor fails with a cursor-expired error.
	AdvanceCursor(ctx context.Context, id string, ttl time.Duration) (*Page, error)
	// CloseCursor releases the cursor. Closing an unknown cursor is a no-op.
	CloseCursor(ctx context.Context, id string) error

	// BulkUpsert submits every op in one batch.
	BulkUpsert(ctx context.Context, ops []UpsertOp) (*BulkResponse, error)
	// Query runs a faceted search.
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
	// Get returns the document with the given ID, or nil when absent.
	Get(ctx context.Context, id string) (*Hit, error)

	Close() error
}
