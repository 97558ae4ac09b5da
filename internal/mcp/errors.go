// Package mcp implements the Model Context Protocol (MCP) server for the
// bookmark catalog.
package mcp

import (
	"context"
	"errors"
	"fmt"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

// Custom MCP error codes for the bookmark catalog.
const (
	// ErrCodeStoreUnavailable indicates the document store could not be reached.
	ErrCodeStoreUnavailable = -32001

	// ErrCodeBulkAmbiguous indicates some records of a write may not have been saved.
	ErrCodeBulkAmbiguous = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeNotFound indicates no bookmark has the requested url.
	ErrCodeNotFound = -32004

	// ErrCodeWritesDisabled indicates add_bookmark was called on a read-only server.
	ErrCodeWritesDisabled = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrBookmarkNotFound indicates no bookmark has the requested url.
	ErrBookmarkNotFound = errors.New("bookmark not found")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	var be *bmerrors.BookmarkError
	if errors.As(err, &be) {
		return mapBookmarkError(be)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Tool not found.",
		}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid parameters.",
		}
	case errors.Is(err, ErrBookmarkNotFound):
		return &MCPError{
			Code:    ErrCodeNotFound,
			Message: "No bookmark has that url.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Something went wrong.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

// mapBookmarkError converts a BookmarkError to an MCPError.
func mapBookmarkError(be *bmerrors.BookmarkError) *MCPError {
	message := be.Message
	if be.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", be.Message, be.Suggestion)
	}

	switch {
	case be.Code == bmerrors.ErrCodeWritesBlocked:
		return &MCPError{Code: ErrCodeWritesDisabled, Message: message}
	case be.Code == bmerrors.ErrCodeBulkAmbiguous:
		return &MCPError{Code: ErrCodeBulkAmbiguous, Message: message}
	case be.Code == bmerrors.ErrCodeCollectionMissing, be.Code == bmerrors.ErrCodeCorruptIndex:
		return &MCPError{Code: ErrCodeStoreUnavailable, Message: "The search server is unavailable.  Try again in a minute or two."}
	}

	switch be.Category {
	case bmerrors.CategoryConnection:
		return &MCPError{Code: ErrCodeStoreUnavailable, Message: "The search server is unavailable.  Try again in a minute or two."}
	case bmerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	default: // config, schema, internal
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
