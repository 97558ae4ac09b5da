package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

const (
	msgUnavailable = "The search server is unavailable.  Try again in a minute or two."
	msgNotFound    = "The requested file does not exist."
	msgWentWrong   = "Something went wrong."
	msgWritesOff   = "Adding bookmarks is disabled on this server."
)

type errorBody struct {
	Error      string            `json:"error"`
	Code       string            `json:"code,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an error to its HTTP status and the message shown.
// An unreachable store and a missing collection both read as the search
// server being down.
func statusFor(err error) (int, string) {
	switch {
	case bmerrors.IsConnection(err),
		bmerrors.HasCode(err, bmerrors.ErrCodeCollectionMissing),
		bmerrors.HasCode(err, bmerrors.ErrCodeCorruptIndex):
		return http.StatusServiceUnavailable, msgUnavailable
	case bmerrors.IsValidation(err):
		return http.StatusBadRequest, ""
	case bmerrors.IsAmbiguous(err):
		return http.StatusInternalServerError, ""
	default:
		return http.StatusInternalServerError, msgWentWrong
	}
}

// writeError renders err. Validation and ambiguous-write errors carry
// their own message and code; everything else gets a fixed message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, msg := statusFor(err)

	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
	}
	for k, v := range bmerrors.FormatForLog(err) {
		attrs = append(attrs, slog.Any(k, v))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("http_error", attrs...)
	} else {
		logger.Debug("http_error", attrs...)
	}

	if msg != "" {
		writeMessage(w, status, msg)
		return
	}

	body := errorBody{Error: err.Error(), Code: bmerrors.GetCode(err)}
	var be *bmerrors.BookmarkError
	if errors.As(err, &be) {
		body.Error = be.Message
		body.Details = be.Details
		body.Suggestion = be.Suggestion
	}
	writeJSON(w, status, body)
}
