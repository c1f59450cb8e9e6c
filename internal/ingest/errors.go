package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies every expected failure of the ingestion pipeline.
// Each kind maps to one HTTP status; anything unclassified is internal.
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindInvalidRequest
	KindUpstreamFetch
	KindPayloadTooLarge
	KindEmptyPayload
	KindConversionFailure
	KindEmptyResult
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration_error"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUpstreamFetch:
		return "upstream_fetch_error"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindEmptyPayload:
		return "empty_payload"
	case KindConversionFailure:
		return "conversion_failure"
	case KindEmptyResult:
		return "empty_conversion_result"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps a kind to the response status served to the caller.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindInvalidRequest, KindUpstreamFetch, KindEmptyPayload:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindConversionFailure:
		return http.StatusInternalServerError
	case KindEmptyResult:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified pipeline failure. Msg is safe to show to the
// caller; the wrapped cause is for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a classified error with a formatted caller-safe message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapErr classifies an underlying cause while keeping it out of the
// caller-visible message.
func WrapErr(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the classification of err, or KindInternal for
// unexpected faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the caller-safe message for err. Unclassified
// errors get a generic message so internal detail never leaks.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "failed to convert file"
}
