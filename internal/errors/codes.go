// Package errors provides structured error handling for the bookmark catalog.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Collection and document shape errors (schema, decode)
//   - 3XX: Store connectivity and remote fetch errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors, including ambiguous bulk outcomes
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategorySchema indicates collection existence and document shape errors.
	CategorySchema Category = "SCHEMA"
	// CategoryConnection indicates the document store or a remote page could not be reached.
	CategoryConnection Category = "CONNECTION"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Schema errors (200-299)
	ErrCodeCollectionExists  = "ERR_201_COLLECTION_EXISTS"
	ErrCodeCollectionMissing = "ERR_202_COLLECTION_MISSING"
	ErrCodeDecodeFailed      = "ERR_203_DECODE_FAILED"
	ErrCodeCorruptIndex      = "ERR_204_CORRUPT_INDEX"

	// Connection errors (300-399)
	ErrCodeStoreUnavailable = "ERR_301_STORE_UNAVAILABLE"
	ErrCodeFetchFailed      = "ERR_302_FETCH_FAILED"
	ErrCodeCursorExpired    = "ERR_303_CURSOR_EXPIRED"

	// Validation errors (400-499)
	ErrCodeInvalidInput  = "ERR_401_INVALID_INPUT"
	ErrCodeMissingField  = "ERR_402_MISSING_FIELD"
	ErrCodeUnknownField  = "ERR_403_UNKNOWN_FIELD"
	ErrCodeInvalidQuery  = "ERR_404_INVALID_QUERY"
	ErrCodeInvalidPage   = "ERR_405_INVALID_PAGE"
	ErrCodeWritesBlocked = "ERR_406_WRITES_DISABLED"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeBulkAmbiguous = "ERR_502_BULK_AMBIGUOUS"
	ErrCodeSearchFailed  = "ERR_503_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategorySchema
	case '3':
		return CategoryConnection
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode reports whether the user may retry the call that produced code.
// Nothing in this module retries on its own.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeFetchFailed, ErrCodeCursorExpired:
		return true
	default:
		return false
	}
}
