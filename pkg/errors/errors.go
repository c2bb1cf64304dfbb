package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError carries a machine-readable code alongside a human-readable
// message. The wrapped cause is logged server-side but never exposed to
// callers.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

const (
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeMissingInput           = "MISSING_INPUT"
	CodeDuplicateSubmission    = "DUPLICATE_SUBMISSION"
	CodeExtractionUnavailable  = "EXTRACTION_UNAVAILABLE"
	CodeExtractionUnparseable  = "EXTRACTION_UNPARSEABLE"
	CodeStorageWriteFailed     = "STORAGE_WRITE_FAILED"
	CodeRecordInsertFailed     = "RECORD_INSERT_FAILED"
	CodeRecordNotFound         = "RECORD_NOT_FOUND"
	CodeListUnavailable        = "LIST_UNAVAILABLE"
)

// CodeOf extracts the AppError code from an error chain, or empty string.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf extracts the user-facing message, falling back to a generic one
// so internal error text never leaks to clients.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "An error occurred"
}

// HTTPStatus maps an error to the response status for the API layer.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeMissingInput, CodeDuplicateSubmission:
		return http.StatusBadRequest
	case CodeRecordNotFound:
		return http.StatusNotFound
	case CodeExtractionUnavailable, CodeExtractionUnparseable,
		CodeStorageWriteFailed, CodeRecordInsertFailed, CodeListUnavailable:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
