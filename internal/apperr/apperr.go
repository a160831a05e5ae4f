// Package apperr defines the error taxonomy shared by all services and
// handlers. Every workflow error that should reach a client carries a Kind;
// anything without one is treated as an internal error at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindPayment
)

type Error struct {
	Kind    Kind
	Message string
	Details []string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(msg string, details ...string) error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Payment(msg string) error {
	return &Error{Kind: KindPayment, Message: msg}
}

// KindOf unwraps err looking for an *Error. The second return is false for
// unclassified errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// DetailsOf returns the validation details attached to err, if any.
func DetailsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// HTTPStatus maps an error to the status code the API returns for it.
// Unclassified errors map to 500.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
