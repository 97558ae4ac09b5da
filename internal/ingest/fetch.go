package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/metrics"
)

// DefaultUserAgent looks like a browser; some sites refuse other clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:80.0) Gecko/20100101 Firefox/80.0"

const defaultMaxBodyBytes = 10 << 20

// FetchResult is the outcome of fetching a set of URLs.
type FetchResult struct {
	// Content is the extracted text of every page that was fetched, in URL
	// order, joined with newlines.
	Content string
	// Failures counts URLs that could not be fetched or read.
	Failures int
	// Errors holds one error per failed URL, in URL order.
	Errors []error
}

// Fetcher retrieves page text for a bookmark's URLs.
type Fetcher interface {
	Fetch(ctx context.Context, urls []string) FetchResult
}

// FetchConfig configures an HTTPFetcher.
type FetchConfig struct {
	// Timeout bounds each URL's fetch. Zero means no per-URL timeout.
	Timeout time.Duration
	// MaxConcurrent caps simultaneous fetches. Zero runs one per URL.
	MaxConcurrent int
	UserAgent     string
	// MaxContentLength truncates the joined content, in bytes. Zero keeps
	// everything.
	MaxContentLength int
	// MaxBodyBytes caps how much of each response is read.
	MaxBodyBytes int64
}

// HTTPFetcher fetches pages over HTTP and extracts their visible text.
type HTTPFetcher struct {
	client *http.Client
	cfg    FetchConfig
	logger *slog.Logger
}

// NewHTTPFetcher returns a fetcher using client, or http.DefaultClient if
// client is nil.
func NewHTTPFetcher(client *http.Client, cfg FetchConfig, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{client: client, cfg: cfg, logger: logger}
}

// Fetch fetches every URL in its own task and waits for all of them. A
// failed URL is counted and logged; it never fails the whole fetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, urls []string) FetchResult {
	texts := make([]string, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	if f.cfg.MaxConcurrent > 0 {
		g.SetLimit(f.cfg.MaxConcurrent)
	}

	for i, u := range urls {
		g.Go(func() error {
			start := time.Now()
			text, err := f.fetchOne(ctx, u)
			metrics.FetchDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.FetchTotal.WithLabelValues("error").Inc()
				f.logger.Warn("fetch_failed", slog.String("url", u), slog.String("error", err.Error()))
				errs[i] = err
				return nil
			}
			metrics.FetchTotal.WithLabelValues("ok").Inc()
			texts[i] = text
			return nil
		})
	}
	_ = g.Wait()

	var res FetchResult
	var parts []string
	for i := range urls {
		if errs[i] != nil {
			res.Failures++
			res.Errors = append(res.Errors, errs[i])
			continue
		}
		parts = append(parts, texts[i])
	}
	res.Content = truncate(strings.Join(parts, "\n"), f.cfg.MaxContentLength)
	return res
}

func (f *HTTPFetcher) fetchOne(ctx context.Context, url string) (string, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fetchError(url, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fetchError(url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fetchError(url, fmt.Errorf("unexpected status %d", resp.StatusCode)).
			WithDetail("status", fmt.Sprintf("%d", resp.StatusCode))
	}

	body := io.LimitReader(resp.Body, f.cfg.MaxBodyBytes)
	if isPlainText(resp.Header.Get("Content-Type")) {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fetchError(url, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	text, err := ExtractText(body)
	if err != nil {
		return "", fetchError(url, err)
	}
	return text, nil
}

func isPlainText(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/plain"
}

func fetchError(url string, cause error) *bmerrors.BookmarkError {
	return bmerrors.New(bmerrors.ErrCodeFetchFailed, "failed to fetch page", cause).
		WithDetail("url", url)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
