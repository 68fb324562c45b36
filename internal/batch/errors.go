package batch

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation failures detected before any network call.
var (
	ErrNoFiles         = errors.New("no files selected")
	ErrTooManyFiles    = errors.New("too many files")
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ValidationError reports why a selection was rejected. File names the
// offending file when the failure is file-specific.
type ValidationError struct {
	File  string
	Count int
	Limit int
	Err   error
}

func (e *ValidationError) Error() string {
	switch {
	case e.File != "":
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	case e.Limit > 0:
		return fmt.Sprintf("%v: %d selected, maximum is %d", e.Err, e.Count, e.Limit)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps batch validation errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrUnsupportedType) {
		return http.StatusUnsupportedMediaType
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
