package errors

import (
	stderrors "errors"
	"fmt"
)

// BookmarkError is the structured error type for the bookmark catalog.
// It provides rich context for error handling, logging, and user presentation.
type BookmarkError struct {
	// Code is the unique error code (e.g., "ERR_301_STORE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Schema, Connection, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates the user may retry the operation.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *BookmarkError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *BookmarkError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with BookmarkError.
func (e *BookmarkError) Is(target error) bool {
	if t, ok := target.(*BookmarkError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *BookmarkError) WithDetail(key, value string) *BookmarkError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *BookmarkError) WithSuggestion(suggestion string) *BookmarkError {
	e.Suggestion = suggestion
	return e
}

// New creates a new BookmarkError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *BookmarkError {
	return &BookmarkError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a BookmarkError from an existing error.
// The error's message becomes the BookmarkError message.
func Wrap(code string, err error) *BookmarkError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *BookmarkError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ConnectionError reports that the document store could not be reached.
func ConnectionError(message string, cause error) *BookmarkError {
	return New(ErrCodeStoreUnavailable, message, cause).
		WithSuggestion("The search server is unavailable. Try again in a minute or two.")
}

// CollectionExistsError reports a create against an existing collection.
func CollectionExistsError(name string) *BookmarkError {
	return New(ErrCodeCollectionExists, fmt.Sprintf("collection %q already exists", name), nil).
		WithDetail("collection", name).
		WithSuggestion("Drop the collection first or pass --delete-existing")
}

// CollectionMissingError reports an operation against an absent collection.
func CollectionMissingError(name string) *BookmarkError {
	return New(ErrCodeCollectionMissing, fmt.Sprintf("collection %q does not exist", name), nil).
		WithDetail("collection", name).
		WithSuggestion("Run 'bookmarks create' first")
}

// DecodeError reports a stored document that does not match the record shape.
func DecodeError(message string, cause error) *BookmarkError {
	return New(ErrCodeDecodeFailed, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *BookmarkError {
	return New(ErrCodeInvalidInput, message, cause)
}

// AmbiguousBulkFailure reports a bulk submission where the store flagged at
// least one failed operation without this layer attributing it to a record.
func AmbiguousBulkFailure(submitted int) *BookmarkError {
	return New(ErrCodeBulkAmbiguous, "some records may not have been saved", nil).
		WithDetail("submitted", fmt.Sprintf("%d", submitted))
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *BookmarkError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a BookmarkError with Retryable flag set.
func IsRetryable(err error) bool {
	var be *BookmarkError
	if stderrors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var be *BookmarkError
	if stderrors.As(err, &be) {
		return be.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a BookmarkError anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var be *BookmarkError
	if stderrors.As(err, &be) {
		return be.Code
	}
	return ""
}

// GetCategory extracts the category from a BookmarkError anywhere in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var be *BookmarkError
	if stderrors.As(err, &be) {
		return be.Category
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return GetCode(err) == code
}

// IsConnection reports a store connectivity failure.
func IsConnection(err error) bool {
	return HasCode(err, ErrCodeStoreUnavailable)
}

// IsSchema reports a collection existence failure.
func IsSchema(err error) bool {
	code := GetCode(err)
	return code == ErrCodeCollectionExists || code == ErrCodeCollectionMissing
}

// IsDecode reports a document shape mismatch.
func IsDecode(err error) bool {
	return HasCode(err, ErrCodeDecodeFailed)
}

// IsValidation reports a caller input error.
func IsValidation(err error) bool {
	return GetCategory(err) == CategoryValidation
}

// IsAmbiguous reports an unattributed bulk failure.
func IsAmbiguous(err error) bool {
	return HasCode(err, ErrCodeBulkAmbiguous)
}
