// Package apperr carries the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindNotFound            Kind = "not_found"
	KindUpstreamAuth        Kind = "upstream_auth_error"
	KindUpstreamQuota       Kind = "upstream_quota_error"
	KindUpstreamNetwork     Kind = "upstream_network_error"
	KindUpstreamParse       Kind = "upstream_parse_error"
	KindMailTransport       Kind = "mail_transport_error"
	KindDatabaseUnavailable Kind = "database_unavailable"
	KindServiceUnavailable  Kind = "service_unavailable"
	KindInternal            Kind = "internal_error"
)

// Error is a classified failure. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Detail carries kind-specific data: raw model output for parse errors,
	// the transport failure class for mail errors.
	Detail string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized, KindUpstreamAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamQuota:
		return http.StatusTooManyRequests
	case KindUpstreamNetwork, KindDatabaseUnavailable, KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstreamParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
