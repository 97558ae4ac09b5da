// Package httpapi serves the bookmark catalog over HTTP as JSON.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/ingest"
	"github.com/Aman-CERP/bookmarks/internal/metrics"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// Searcher is the read side of the catalog.
type Searcher interface {
	Search(ctx context.Context, q string, page int) (*catalog.SearchResult, error)
	ListTags(ctx context.Context) ([]string, error)
	Lookup(ctx context.Context, id string) (*record.Record, error)
}

// Importer writes records.
type Importer interface {
	Import(ctx context.Context, recs []record.Record) (int, error)
}

// Builder turns submitted form fields into a record.
type Builder interface {
	BuildFromFields(ctx context.Context, fields map[string][]string) (*ingest.Result, error)
}

// Deps are the handlers' collaborators.
type Deps struct {
	Searcher Searcher
	Importer Importer
	Builder  Builder
	// AllowWrites enables /new. Without it /new answers 403.
	AllowWrites bool
	// WriteTimeout bounds a POST /new, page fetches included.
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// NewRouter builds the chi router with middleware and every route.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(logRequests(d.Logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/search", http.StatusPermanentRedirect)
	})
	r.Get("/search", h.search)
	r.Get("/tags", h.tags)
	r.Get("/bookmark", h.bookmark)
	r.Get("/new", h.newForm)
	r.Post("/new", h.create)
	r.Handle("/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	return r
}

// Server wraps the HTTP server.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// NewServer returns a server for handler on addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http_server_listening", slog.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts down gracefully within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http_server_stopping")
	return s.http.Shutdown(ctx)
}
