package ingest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body><p>first page</p></body></html>")
	})
	mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "  second page\n")
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<p>"+r.UserAgent()+"</p>")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher_JoinsInURLOrder(t *testing.T) {
	srv := newPageServer(t)
	f := NewHTTPFetcher(srv.Client(), FetchConfig{}, quietLogger())

	res := f.Fetch(context.Background(), []string{srv.URL + "/two", srv.URL + "/one"})

	assert.Equal(t, "second page\nfirst page", res.Content)
	assert.Zero(t, res.Failures)
	assert.Empty(t, res.Errors)
}

func TestHTTPFetcher_ToleratesFailures(t *testing.T) {
	srv := newPageServer(t)
	f := NewHTTPFetcher(srv.Client(), FetchConfig{Timeout: 100 * time.Millisecond}, quietLogger())

	// Given: one good page among a 404, a hanging server and a bad URL
	res := f.Fetch(context.Background(), []string{
		srv.URL + "/gone",
		srv.URL + "/one",
		srv.URL + "/slow",
		"http://[::1]:namedport/",
	})

	// Then: the good page is kept and every failure is counted
	assert.Equal(t, "first page", res.Content)
	assert.Equal(t, 3, res.Failures)
	require.Len(t, res.Errors, 3)
	for _, err := range res.Errors {
		assert.Equal(t, bmerrors.ErrCodeFetchFailed, bmerrors.GetCode(err))
	}

	var be *bmerrors.BookmarkError
	require.ErrorAs(t, res.Errors[0], &be)
	assert.Equal(t, "404", be.Details["status"])
}

func TestHTTPFetcher_SendsUserAgent(t *testing.T) {
	srv := newPageServer(t)

	res := NewHTTPFetcher(srv.Client(), FetchConfig{}, quietLogger()).
		Fetch(context.Background(), []string{srv.URL + "/ua"})
	assert.Equal(t, DefaultUserAgent, res.Content)

	res = NewHTTPFetcher(srv.Client(), FetchConfig{UserAgent: "bookmarks-test"}, quietLogger()).
		Fetch(context.Background(), []string{srv.URL + "/ua"})
	assert.Equal(t, "bookmarks-test", res.Content)
}

func TestHTTPFetcher_TruncatesContent(t *testing.T) {
	srv := newPageServer(t)
	f := NewHTTPFetcher(srv.Client(), FetchConfig{MaxContentLength: 5}, quietLogger())

	res := f.Fetch(context.Background(), []string{srv.URL + "/one"})

	assert.Equal(t, "first", res.Content)
}

func TestHTTPFetcher_LimitsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = io.WriteString(w, "x")
	}))
	defer srv.Close()

	urls := make([]string, 6)
	for i := range urls {
		urls[i] = srv.URL
	}
	res := NewHTTPFetcher(srv.Client(), FetchConfig{MaxConcurrent: 2}, quietLogger()).
		Fetch(context.Background(), urls)

	assert.Equal(t, strings.Repeat("x\n", 5)+"x", res.Content)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "h", truncate("hé", 2), "never splits a rune")
	assert.Equal(t, "hé", truncate("hé", 3))
}
