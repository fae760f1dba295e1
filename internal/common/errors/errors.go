// Package errors provides standardized error handling for the review framework API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeFrameworkFileNotFound ErrorCode = "FRAMEWORK_FILE_NOT_FOUND"
	ErrCodeFrameworkFileInvalid  ErrorCode = "FRAMEWORK_FILE_INVALID"
	ErrCodeFrameworkEmpty        ErrorCode = "FRAMEWORK_EMPTY"

	ErrCodeGenerationDisabled ErrorCode = "GENERATION_DISABLED"
	ErrCodeGenerationFailed   ErrorCode = "GENERATION_FAILED"
	ErrCodeUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	ErrCodeHistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match on the code alone.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewFrameworkFileNotFoundError is returned when a named framework file cannot be found.
// The message is the user-facing detail.
func NewFrameworkFileNotFoundError(filename, directory string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFrameworkFileNotFound,
		Message:   fmt.Sprintf("File %s not found in %s", filename, directory),
		Details:   fmt.Sprintf("filename: %s, directory: %s", filename, directory),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFrameworkFileInvalidError wraps a read or parse failure of a single framework file.
func NewFrameworkFileInvalidError(filename string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFrameworkFileInvalid,
		Message:   fmt.Sprintf("Error loading %s", filename),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFrameworkEmptyError is returned by the aggregate endpoint when nothing was loaded.
func NewFrameworkEmptyError(directory string, exists bool, rootDirs []string) *StandardError {
	return &StandardError{
		Code: ErrCodeFrameworkEmpty,
		Message: fmt.Sprintf("No framework files found in %s. Directory exists: %t. Root directories: %s",
			directory, exists, formatList(rootDirs)),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewGenerationDisabledError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationDisabled,
		Message:   "Review generation is disabled",
		Details:   "ANTHROPIC_API_KEY is not set",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationFailedError wraps any failure of the upstream generation call.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Review generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewUpstreamTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   fmt.Sprintf("Invalid request body: %s", details),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewHistoryUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryUnavailable,
		Message:   "Review history is not available",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// HTTPStatus maps an error code to the status the HTTP layer responds with.
// Generation codes never reach this mapping on the review path: the generator
// turns them into response text.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeFrameworkFileNotFound, ErrCodeFrameworkEmpty:
		return http.StatusNotFound
	case ErrCodeInvalidRequest:
		return http.StatusUnprocessableEntity
	case ErrCodeHistoryUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeGenerationFailed, ErrCodeUpstreamTimeout, ErrCodeHistoryUnavailable:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "FRAMEWORK"):
		return "FRAMEWORK"
	case strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "UPSTREAM"):
		return "AI"
	case strings.Contains(codeStr, "HISTORY"):
		return "STORAGE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// AsStandardError extracts a StandardError from err, wrapping unknown errors as internal ones.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// formatList renders names as a bracketed, single-quoted list.
func formatList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
