package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_BookmarkErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "store unavailable",
			err:         bmerrors.ConnectionError("dial failed", errors.New("refused")),
			wantCode:    ErrCodeStoreUnavailable,
			wantMessage: "The search server is unavailable.  Try again in a minute or two.",
		},
		{
			name:        "collection missing",
			err:         bmerrors.CollectionMissingError("bookmarks"),
			wantCode:    ErrCodeStoreUnavailable,
			wantMessage: "The search server is unavailable",
		},
		{
			name:        "invalid query",
			err:         bmerrors.New(bmerrors.ErrCodeInvalidQuery, "query does not parse", nil),
			wantCode:    ErrCodeInvalidParams,
			wantMessage: "query does not parse",
		},
		{
			name:        "missing field with suggestion",
			err:         bmerrors.New(bmerrors.ErrCodeMissingField, "url is required", nil).WithSuggestion("Supply at least one url"),
			wantCode:    ErrCodeInvalidParams,
			wantMessage: "url is required. Supply at least one url",
		},
		{
			name:        "ambiguous bulk",
			err:         bmerrors.AmbiguousBulkFailure(3),
			wantCode:    ErrCodeBulkAmbiguous,
			wantMessage: "some records may not have been saved",
		},
		{
			name:        "writes disabled",
			err:         bmerrors.New(bmerrors.ErrCodeWritesBlocked, "Adding bookmarks is disabled", nil),
			wantCode:    ErrCodeWritesDisabled,
			wantMessage: "disabled",
		},
		{
			name:        "internal",
			err:         bmerrors.InternalError("boom", nil),
			wantCode:    ErrCodeInternalError,
			wantMessage: "boom",
		},
		{
			name:        "wrapped bookmark error",
			err:         fmt.Errorf("search: %w", bmerrors.ConnectionError("closed", nil)),
			wantCode:    ErrCodeStoreUnavailable,
			wantMessage: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: mapping the error
			got := MapError(tt.err)

			// Then: code and message follow the error's kind
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Contains(t, got.Message, tt.wantMessage)
		})
	}
}

func TestMapError_StandardErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"tool not found", ErrToolNotFound, ErrCodeMethodNotFound},
		{"invalid params", ErrInvalidParams, ErrCodeInvalidParams},
		{"bookmark not found", ErrBookmarkNotFound, ErrCodeNotFound},
		{"unknown", errors.New("something else"), ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapError_PassesMCPErrorsThrough(t *testing.T) {
	// Given: an error that is already an MCP error
	orig := NewInvalidParamsError("page must be 1 or greater")

	// Then: it is returned unchanged
	assert.Same(t, orig, MapError(orig))
}

func TestMCPError_Error(t *testing.T) {
	err := NewMethodNotFoundError("nope")
	assert.Equal(t, "MCP error -32601: Tool 'nope' not found.", err.Error())
}
