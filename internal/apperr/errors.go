// Package apperr defines the error taxonomy shared by all request handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// FormatError reports malformed comment or XML input. Always recoverable.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid format: " + e.Reason
}

func Formatf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing video, file or comment target.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return e.Target + " not found"
}

func NotFound(target string) error {
	return &NotFoundError{Target: target}
}

// RemoteAPIError carries a non-success response from the DanDanPlay service.
type RemoteAPIError struct {
	StatusCode int
	Body       string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("remote api returned %d: %s", e.StatusCode, e.Body)
}

// SizeLimitError reports an upload exceeding the configured maximum.
type SizeLimitError struct {
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file too large, maximum size is %d bytes", e.Limit)
}

// HTTPStatus maps an error to the response status it should produce.
// Anything unclassified is an internal error.
func HTTPStatus(err error) int {
	var formatErr *FormatError
	var notFoundErr *NotFoundError
	var remoteErr *RemoteAPIError
	var sizeErr *SizeLimitError

	switch {
	case errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &remoteErr):
		if remoteErr.StatusCode >= 500 {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// TypeName returns the taxonomy name used in error response bodies.
func TypeName(err error) string {
	var formatErr *FormatError
	var notFoundErr *NotFoundError
	var remoteErr *RemoteAPIError
	var sizeErr *SizeLimitError

	switch {
	case errors.As(err, &formatErr):
		return "FormatError"
	case errors.As(err, &notFoundErr):
		return "NotFound"
	case errors.As(err, &remoteErr):
		return "RemoteAPIError"
	case errors.As(err, &sizeErr):
		return "SizeLimitError"
	default:
		return "InternalError"
	}
}
