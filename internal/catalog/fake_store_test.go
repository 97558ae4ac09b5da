package catalog

import (
	"context"
	"time"

	"github.com/Aman-CERP/bookmarks/internal/store"
)

// fakeStore is a scripted DocumentStore for failure injection.
type fakeStore struct {
	exists bool

	pages      [][]store.Hit
	openErr    error
	advanceErr error
	advanced   int
	closed     []string

	bulkResp *store.BulkResponse
	bulkErr  error
	bulkOps  []store.UpsertOp

	queryResp *store.QueryResponse
	queryErr  error
	queries   []store.QueryRequest

	hit    *store.Hit
	getErr error
}

var _ store.DocumentStore = (*fakeStore)(nil)

func (f *fakeStore) CreateCollection(ctx context.Context, schema store.Schema) error {
	f.exists = true
	return nil
}

func (f *fakeStore) DropCollection(ctx context.Context) error {
	f.exists = false
	return nil
}

func (f *fakeStore) Exists(ctx context.Context) (bool, error) {
	return f.exists, nil
}

func (f *fakeStore) OpenCursor(ctx context.Context, req store.CursorRequest, ttl time.Duration) (string, *store.Page, error) {
	if f.openErr != nil {
		return "", nil, f.openErr
	}
	return "cursor-1", f.page(0), nil
}

func (f *fakeStore) AdvanceCursor(ctx context.Context, id string, ttl time.Duration) (*store.Page, error) {
	f.advanced++
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	return f.page(f.advanced), nil
}

func (f *fakeStore) page(i int) *store.Page {
	if i < len(f.pages) {
		return &store.Page{Hits: f.pages[i]}
	}
	return &store.Page{}
}

func (f *fakeStore) CloseCursor(ctx context.Context, id string) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeStore) BulkUpsert(ctx context.Context, ops []store.UpsertOp) (*store.BulkResponse, error) {
	f.bulkOps = append(f.bulkOps, ops...)
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	if f.bulkResp != nil {
		return f.bulkResp, nil
	}
	resp := &store.BulkResponse{Items: make([]store.BulkItem, len(ops))}
	for i, op := range ops {
		resp.Items[i].ID = op.ID
	}
	return resp, nil
}

func (f *fakeStore) Query(ctx context.Context, req store.QueryRequest) (*store.QueryResponse, error) {
	f.queries = append(f.queries, req)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryResp != nil {
		return f.queryResp, nil
	}
	return &store.QueryResponse{Facets: map[string][]store.FacetBucket{}}, nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (*store.Hit, error) {
	return f.hit, f.getErr
}

func (f *fakeStore) Close() error { return nil }
