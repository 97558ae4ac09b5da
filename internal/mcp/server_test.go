package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/config"
	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/ingest"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// fakeCatalog implements Searcher, Importer and Builder for testing.
type fakeCatalog struct {
	records   map[string]record.Record
	tags      []string
	searchErr error
	importErr error
	buildErr  error

	lastQuery  string
	lastPage   int
	lastFields map[string][]string
	imported   []record.Record
}

func newFakeCatalog(recs ...record.Record) *fakeCatalog {
	f := &fakeCatalog{records: map[string]record.Record{}}
	for _, r := range recs {
		f.records[r.ID()] = r
	}
	return f
}

func (f *fakeCatalog) Search(_ context.Context, q string, page int) (*catalog.SearchResult, error) {
	f.lastQuery, f.lastPage = q, page
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	res := &catalog.SearchResult{
		Domains: map[string]int{},
		Tags:    map[string]int{},
		Page:    page,
	}
	for _, r := range f.records {
		res.Results = append(res.Results, catalog.Result{Record: r, Fragment: "<mark>" + q + "</mark>"})
		res.Domains[r.Domain]++
		for _, t := range r.Tag {
			res.Tags[t]++
		}
	}
	res.Total = len(res.Results)
	if res.Total > 0 {
		res.Pages = 1
	}
	return res, nil
}

func (f *fakeCatalog) ListTags(_ context.Context) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.tags, nil
}

func (f *fakeCatalog) Lookup(_ context.Context, id string) (*record.Record, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeCatalog) Import(_ context.Context, recs []record.Record) (int, error) {
	if f.importErr != nil {
		return 0, f.importErr
	}
	f.imported = append(f.imported, recs...)
	for _, r := range recs {
		f.records[r.ID()] = r
	}
	return len(recs), nil
}

func (f *fakeCatalog) BuildFromFields(_ context.Context, fields map[string][]string) (*ingest.Result, error) {
	f.lastFields = fields
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	urls := fields[ingest.FieldURL]
	titles := fields[ingest.FieldTitle]
	if len(urls) == 0 || len(titles) == 0 {
		return nil, bmerrors.New(bmerrors.ErrCodeMissingField, "url and title are required", nil)
	}
	return &ingest.Result{
		Record: record.Record{
			Title:     titles,
			TitleSort: titles[0],
			URL:       urls,
			Domain:    record.DomainOf(urls[0]),
			Tag:       fields[ingest.FieldTag],
			Content:   "fetched",
		},
		Fetched:       true,
		FetchFailures: 1,
	}, nil
}

func newTestServer(t *testing.T, fc *fakeCatalog, allowWrites bool) *Server {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Server.AllowWrites = allowWrites
	srv, err := NewServer(fc, fc, fc, cfg)
	require.NoError(t, err)
	return srv
}

func TestNewServer_RequiresSearcher(t *testing.T) {
	_, err := NewServer(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestNewServer_WritesNeedImporterAndBuilder(t *testing.T) {
	// Given: writes allowed but no write side
	cfg := config.NewConfig()
	cfg.Server.AllowWrites = true

	// When: creating the server
	_, err := NewServer(newFakeCatalog(), nil, nil, cfg)

	// Then: it is rejected
	assert.Error(t, err)
}

func TestNewServer_ReadOnlyWithoutWriteSide(t *testing.T) {
	srv, err := NewServer(newFakeCatalog(), nil, nil, nil)
	require.NoError(t, err)

	name, ver := srv.Info()
	assert.Equal(t, "bookmarks", name)
	assert.NotEmpty(t, ver)

	hasTools, hasResources := srv.Capabilities()
	assert.True(t, hasTools)
	assert.True(t, hasResources)
	assert.NotNil(t, srv.MCPServer())
}

func TestServer_ListTools(t *testing.T) {
	srv := newTestServer(t, newFakeCatalog(), false)

	names := make([]string, 0, 4)
	for _, tool := range srv.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{"search_bookmarks", "list_tags", "get_bookmark", "add_bookmark"}, names)
}

func TestServer_SearchBookmarks(t *testing.T) {
	// Given: a catalog with one bookmark
	fc := newFakeCatalog(foxRecord())
	srv := newTestServer(t, fc, false)

	// When: searching without a page
	out, err := srv.CallTool(context.Background(), "search_bookmarks", map[string]any{"query": " fox "})

	// Then: the first page is requested with the trimmed query
	require.NoError(t, err)
	assert.Equal(t, "fox", fc.lastQuery)
	assert.Equal(t, 1, fc.lastPage)

	so, ok := out.(SearchOutput)
	require.True(t, ok)
	assert.Equal(t, 1, so.Total)
	require.Len(t, so.Results, 1)
	assert.Equal(t, "http://x.test/a", so.Results[0].URL)
	assert.Equal(t, "<mark>fox</mark>", so.Results[0].Fragment)
	assert.Equal(t, []catalog.FacetCount{{Key: "x.test", Count: 1}}, so.Domains)
	assert.Contains(t, so.Markdown, "Fox facts")
}

func TestServer_SearchBookmarks_Page(t *testing.T) {
	fc := newFakeCatalog()
	srv := newTestServer(t, fc, false)

	_, err := srv.CallTool(context.Background(), "search_bookmarks", map[string]any{"query": "", "page": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, fc.lastPage)

	_, err = srv.CallTool(context.Background(), "search_bookmarks", map[string]any{"page": -1})
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)

	_, err = srv.CallTool(context.Background(), "search_bookmarks", map[string]any{"page": "two"})
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestServer_SearchBookmarks_StoreDown(t *testing.T) {
	fc := newFakeCatalog()
	fc.searchErr = bmerrors.ConnectionError("store closed", nil)
	srv := newTestServer(t, fc, false)

	_, err := srv.CallTool(context.Background(), "search_bookmarks", map[string]any{"query": "x"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeStoreUnavailable, mcpErr.Code)
}

func TestServer_ListTags(t *testing.T) {
	fc := newFakeCatalog()
	srv := newTestServer(t, fc, false)

	// Given: no tags yet
	out, err := srv.CallTool(context.Background(), "list_tags", nil)
	require.NoError(t, err)
	assert.Equal(t, ListTagsOutput{Tags: []string{}}, out)

	// Given: some tags
	fc.tags = []string{"go", "rust"}
	out, err = srv.CallTool(context.Background(), "list_tags", nil)
	require.NoError(t, err)
	assert.Equal(t, ListTagsOutput{Tags: []string{"go", "rust"}}, out)
}

func TestServer_GetBookmark(t *testing.T) {
	srv := newTestServer(t, newFakeCatalog(tripRecord()), false)

	tests := []struct {
		name     string
		url      string
		wantCode int
	}{
		{"found", "http://a.test/", 0},
		{"not found", "http://nope.test/", ErrCodeNotFound},
		{"blank", "  ", ErrCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := srv.CallTool(context.Background(), "get_bookmark", map[string]any{"url": tt.url})
			if tt.wantCode == 0 {
				require.NoError(t, err)
				b := out.(BookmarkOutput)
				assert.Equal(t, "Trip", b.Title)
				assert.Len(t, b.Parts, 2)
				return
			}
			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.wantCode, mcpErr.Code)
		})
	}
}

func TestServer_AddBookmark_Disabled(t *testing.T) {
	// Given: a read-only server
	fc := newFakeCatalog()
	srv := newTestServer(t, fc, false)

	// When: adding a bookmark
	_, err := srv.CallTool(context.Background(), "add_bookmark", map[string]any{
		"url":   []string{"http://x.test/a"},
		"title": []string{"A"},
	})

	// Then: it is refused and nothing is built or written
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeWritesDisabled, mcpErr.Code)
	assert.Nil(t, fc.lastFields)
	assert.Empty(t, fc.imported)
}

func TestServer_AddBookmark(t *testing.T) {
	// Given: a writable server
	fc := newFakeCatalog()
	srv := newTestServer(t, fc, true)

	// When: adding a collection
	out, err := srv.CallTool(context.Background(), "add_bookmark", map[string]any{
		"url":              []string{"http://a.test/", "http://a.test/1"},
		"title":            []string{"Day1"},
		"collection_title": "Trip",
		"tag":              []string{"travel"},
	})

	// Then: the fields reach the builder and the record is imported
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		ingest.FieldURL:             {"http://a.test/", "http://a.test/1"},
		ingest.FieldTitle:           {"Day1"},
		ingest.FieldCollectionTitle: {"Trip"},
		ingest.FieldTag:             {"travel"},
	}, fc.lastFields)
	require.Len(t, fc.imported, 1)

	added := out.(AddBookmarkOutput)
	assert.True(t, added.Fetched)
	assert.Equal(t, 1, added.FetchFailures)
	assert.Equal(t, "a.test", added.Bookmark.Domain)
}

func TestServer_AddBookmark_Failures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(fc *fakeCatalog)
		args     map[string]any
		wantCode int
	}{
		{
			name:     "missing fields",
			setup:    func(*fakeCatalog) {},
			args:     map[string]any{"tag": []string{"x"}},
			wantCode: ErrCodeInvalidParams,
		},
		{
			name: "ambiguous write",
			setup: func(fc *fakeCatalog) {
				fc.importErr = bmerrors.AmbiguousBulkFailure(1)
			},
			args:     map[string]any{"url": []string{"http://x.test/"}, "title": []string{"X"}},
			wantCode: ErrCodeBulkAmbiguous,
		},
		{
			name: "store down",
			setup: func(fc *fakeCatalog) {
				fc.importErr = bmerrors.ConnectionError("refused", errors.New("dial"))
			},
			args:     map[string]any{"url": []string{"http://x.test/"}, "title": []string{"X"}},
			wantCode: ErrCodeStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeCatalog()
			tt.setup(fc)
			srv := newTestServer(t, fc, true)

			_, err := srv.CallTool(context.Background(), "add_bookmark", tt.args)

			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.wantCode, mcpErr.Code)
		})
	}
}

func TestServer_UnknownTool(t *testing.T) {
	srv := newTestServer(t, newFakeCatalog(), false)

	_, err := srv.CallTool(context.Background(), "search_code", nil)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
}

func TestServer_TagsResource(t *testing.T) {
	fc := newFakeCatalog()
	fc.tags = []string{"go"}
	srv := newTestServer(t, fc, false)

	res, err := srv.ReadResource(context.Background(), TagsURI)
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var got ListTagsOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
	assert.Equal(t, []string{"go"}, got.Tags)

	_, err = srv.ReadResource(context.Background(), "bookmarks://nope")
	assert.Error(t, err)
}

func TestServer_ServeUnknownTransport(t *testing.T) {
	srv := newTestServer(t, newFakeCatalog(), false)
	assert.Error(t, srv.Serve(context.Background(), "sse"))
}

func TestServer_OverInMemoryTransport(t *testing.T) {
	// Given: the server connected to a client in memory
	fc := newFakeCatalog(foxRecord())
	srv := newTestServer(t, fc, false)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	// When: listing tools
	list, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	// Then: every tool is advertised
	names := map[string]bool{}
	for _, tool := range list.Tools {
		names[tool.Name] = true
	}
	for _, want := range srv.ListTools() {
		assert.True(t, names[want.Name], want.Name)
	}

	// When: calling search_bookmarks
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_bookmarks",
		Arguments: map[string]any{"query": "fox"},
	})

	// Then: the call succeeds
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "fox", fc.lastQuery)

	// When: calling add_bookmark on a read-only server
	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "add_bookmark",
		Arguments: map[string]any{"url": []string{"http://x.test/"}, "title": []string{"X"}},
	})

	// Then: the tool reports an error result
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
