package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

const maxFormBytes = 1 << 20

type handlers struct {
	deps Deps
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, h.deps.Logger, bmerrors.New(bmerrors.ErrCodeInvalidPage, "page must be a number", err).
				WithDetail("page", raw))
			return
		}
		page = n
	}

	res, err := h.deps.Searcher.Search(r.Context(), q, page)
	if err != nil {
		writeError(w, r, h.deps.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presentSearch(q, res))
}

func (h *handlers) tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.deps.Searcher.ListTags(r.Context())
	if err != nil {
		writeError(w, r, h.deps.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *handlers) bookmark(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("url"))
	if id == "" {
		writeError(w, r, h.deps.Logger, bmerrors.New(bmerrors.ErrCodeMissingField, "url is required", nil).
			WithDetail("field", "url"))
		return
	}

	rec, err := h.deps.Searcher.Lookup(r.Context(), id)
	if err != nil {
		writeError(w, r, h.deps.Logger, err)
		return
	}
	if rec == nil {
		writeMessage(w, http.StatusNotFound, "No bookmark has that url.")
		return
	}
	writeJSON(w, http.StatusOK, presentRecord(*rec, ""))
}

// newForm returns what a client needs to render the add form.
func (h *handlers) newForm(w http.ResponseWriter, r *http.Request) {
	if !h.deps.AllowWrites {
		writeMessage(w, http.StatusForbidden, msgWritesOff)
		return
	}
	tags, err := h.deps.Searcher.ListTags(r.Context())
	if err != nil {
		writeError(w, r, h.deps.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

type createdView struct {
	Bookmark      resultView `json:"bookmark"`
	Fetched       bool       `json:"fetched"`
	FetchFailures int        `json:"fetch_failures"`
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	if !h.deps.AllowWrites {
		writeMessage(w, http.StatusForbidden, msgWritesOff)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, r, h.deps.Logger, bmerrors.ValidationError("form could not be parsed", err))
		return
	}

	ctx := r.Context()
	if h.deps.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.deps.WriteTimeout)
		defer cancel()
	}

	res, err := h.deps.Builder.BuildFromFields(ctx, r.PostForm)
	if err != nil {
		writeError(w, r, h.deps.Logger, err)
		return
	}
	if _, err := h.deps.Importer.Import(ctx, []record.Record{res.Record}); err != nil {
		writeError(w, r, h.deps.Logger, err)
		return
	}

	h.deps.Logger.Info("bookmark_added",
		slog.String("id", res.Record.ID()),
		slog.Int("fetch_failures", res.FetchFailures))
	writeJSON(w, http.StatusCreated, createdView{
		Bookmark:      presentRecord(res.Record, ""),
		Fetched:       res.Fetched,
		FetchFailures: res.FetchFailures,
	})
}
