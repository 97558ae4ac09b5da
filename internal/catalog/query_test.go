package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/record"
	"github.com/Aman-CERP/bookmarks/internal/store"
)

func TestSearch_FindsSubmittedBookmark(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	importAll(t, s,
		bookmark("http://x.test/a", "A", "fox"),
		bookmark("http://y.test/b", "B", "hound"),
	)

	res, err := NewQueryEngine(s, QueryConfig{}).Search(ctx, "fox", 1)

	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "x.test", res.Results[0].Record.Domain)
	assert.Equal(t, "<mark>fox</mark>", res.Results[0].Fragment)
	assert.Equal(t, map[string]int{"x.test": 1}, res.Domains)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Pages)
}

func TestSearch_Pagination(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	var recs []record.Record
	for i := 0; i < 26; i++ {
		recs = append(recs, bookmark(fmt.Sprintf("http://p.test/%02d", i), fmt.Sprintf("T%02d", i), "page"))
	}
	importAll(t, s, recs...)
	engine := NewQueryEngine(s, QueryConfig{})

	tests := []struct {
		page     int
		wantHits int
	}{
		{1, 25},
		{2, 1},
		{3, 0},
		{1 << 40, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			res, err := engine.Search(ctx, "page", tt.page)
			require.NoError(t, err)
			assert.Len(t, res.Results, tt.wantHits)
			assert.Equal(t, 26, res.Total)
			assert.Equal(t, 2, res.Pages)
			assert.Equal(t, tt.page, res.Page)
		})
	}
}

func TestSearch_InvalidPage(t *testing.T) {
	for _, page := range []int{0, -1} {
		_, err := NewQueryEngine(&fakeStore{}, QueryConfig{}).Search(context.Background(), "x", page)
		assert.Equal(t, bmerrors.ErrCodeInvalidPage, bmerrors.GetCode(err))
		assert.True(t, bmerrors.IsValidation(err))
	}
}

func TestSearch_TieBreakByTitleSort(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	importAll(t, s,
		bookmark("http://c/", "Charlie", "same words"),
		bookmark("http://a/", "Alpha", "same words"),
		bookmark("http://b/", "Bravo", "same words"),
	)

	for _, q := range []string{"same", "", "   "} {
		res, err := NewQueryEngine(s, QueryConfig{}).Search(ctx, q, 1)
		require.NoError(t, err)
		var titles []string
		for _, r := range res.Results {
			titles = append(titles, r.Record.TitleSort)
		}
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, titles, "query %q", q)
	}
}

func TestSearch_MatchAllHasNoFragments(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	importAll(t, s, bookmark("http://a/", "A", "some content"))

	res, err := NewQueryEngine(s, QueryConfig{}).Search(ctx, "", 1)

	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Empty(t, res.Results[0].Fragment)
}

func TestSearch_FragmentsAreStitched(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	long := "start "
	for i := 0; i < 80; i++ {
		long += "filler "
	}
	long += "needle "
	for i := 0; i < 80; i++ {
		long += "padding "
	}
	long += "end"
	importAll(t, s, bookmark("http://a/", "A", long))

	res, err := NewQueryEngine(s, QueryConfig{}).Search(ctx, "needle", 1)

	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	frag := res.Results[0].Fragment
	assert.Contains(t, frag, "<mark>needle</mark>")
	assert.True(t, len(frag) > 0 && frag[:len(Ellipsis)] == Ellipsis, "fragment %q", frag)
	assert.True(t, frag[len(frag)-len(Ellipsis):] == Ellipsis, "fragment %q", frag)
}

func TestSearch_FieldQualifiedAndFacets(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	importAll(t, s,
		bookmark("http://a.test/1", "Go tour", "learn go", "go", "tutorial"),
		bookmark("http://a.test/2", "Rust book", "learn rust", "rust", "tutorial"),
		bookmark("http://b.test/1", "Go reference", "reference", "go"),
	)
	engine := NewQueryEngine(s, QueryConfig{})

	res, err := engine.Search(ctx, "tag:go", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, map[string]int{"a.test": 1, "b.test": 1}, res.Domains)
	assert.Equal(t, map[string]int{"go": 2, "tutorial": 1}, res.Tags)

	res, err = engine.Search(ctx, "learn -rust", 1)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "http://a.test/1", res.Results[0].Record.ID())
}

func TestSearch_InvalidQuerySyntax(t *testing.T) {
	_, err := NewQueryEngine(newCatalogStore(t), QueryConfig{}).Search(context.Background(), `"open`, 1)
	assert.Equal(t, bmerrors.ErrCodeInvalidQuery, bmerrors.GetCode(err))
}

func TestSearch_RequestShape(t *testing.T) {
	f := &fakeStore{}
	_, err := NewQueryEngine(f, QueryConfig{}).Search(context.Background(), "  ", 3)
	require.NoError(t, err)

	require.Len(t, f.queries, 1)
	q := f.queries[0]
	assert.Equal(t, "", q.QueryString)
	assert.Equal(t, 50, q.From)
	assert.Equal(t, 25, q.Size)
	assert.Equal(t, []string{"-_score", "title_sort"}, q.Sort)
	assert.Equal(t, []store.FacetRequest{
		{Name: "domain", Field: "domain", Size: 500},
		{Name: "tag", Field: "tag", Size: 500},
	}, q.Facets)
	assert.Equal(t, &store.HighlightRequest{Field: "content"}, q.Highlight)
}

func TestSearch_DecodeFailure(t *testing.T) {
	f := &fakeStore{queryResp: &store.QueryResponse{
		Total: 1,
		Hits:  []store.Hit{{ID: "http://broken/", Source: map[string]any{"url": "http://broken/"}}},
	}}

	_, err := NewQueryEngine(f, QueryConfig{}).Search(context.Background(), "x", 1)

	assert.True(t, bmerrors.IsDecode(err))
}

func TestSearch_PropagatesConnectionErrors(t *testing.T) {
	f := &fakeStore{queryErr: bmerrors.ConnectionError("down", nil)}
	engine := NewQueryEngine(f, QueryConfig{})

	_, err := engine.Search(context.Background(), "x", 1)
	assert.True(t, bmerrors.IsConnection(err))

	_, err = engine.ListTags(context.Background())
	assert.True(t, bmerrors.IsConnection(err))
}

func TestListTags(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	engine := NewQueryEngine(s, QueryConfig{})

	// Given: an empty collection
	tags, err := engine.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, tags)

	// When: tags are spread over documents
	importAll(t, s,
		bookmark("http://a/", "A", "", "zeta", "alpha"),
		bookmark("http://b/", "B", "", "alpha", "mid"),
	)
	tags, err = engine.ListTags(ctx)

	// Then: distinct and sorted
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, tags)
}

func TestListTags_CappedByFacetSize(t *testing.T) {
	ctx := context.Background()
	s := newCatalogStore(t)
	var recs []record.Record
	for i := 0; i < 12; i++ {
		recs = append(recs, bookmark(fmt.Sprintf("http://t/%d", i), "T", "", fmt.Sprintf("tag%02d", i)))
	}
	importAll(t, s, recs...)

	tags, err := NewQueryEngine(s, QueryConfig{FacetSize: 10}).ListTags(ctx)

	require.NoError(t, err)
	assert.Len(t, tags, 10)
	assert.IsIncreasing(t, tags)
}

func TestLookup_Errors(t *testing.T) {
	f := &fakeStore{getErr: bmerrors.ConnectionError("down", nil)}
	_, err := NewQueryEngine(f, QueryConfig{}).Lookup(context.Background(), "x")
	assert.True(t, bmerrors.IsConnection(err))

	f = &fakeStore{hit: &store.Hit{ID: "x", Source: map[string]any{}}}
	_, err = NewQueryEngine(f, QueryConfig{}).Lookup(context.Background(), "x")
	assert.True(t, bmerrors.IsDecode(err))
}
