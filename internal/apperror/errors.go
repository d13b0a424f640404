// Package apperror defines the error taxonomy shared by services and
// handlers. Services return *Error values; handlers translate the Kind into
// an HTTP status and the Code/Message into the response body.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindBusinessRule Kind = "BUSINESS_RULE"
	KindInternal     Kind = "INTERNAL"
)

// Error is an application error. Two errors with the same non-empty Code
// match under errors.Is regardless of Kind or Message, so the well-known
// values below work as sentinels even after WithKind/WithMessage.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target carries the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithKind returns a copy of e classified under k.
func (e *Error) WithKind(k Kind) *Error {
	cp := *e
	cp.Kind = k
	return &cp
}

// WithMessage returns a copy of e with a more specific client message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// New builds an error of the given kind.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation builds a VALIDATION error with the generic code.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: msg}
}

// NotFound builds a NOT_FOUND error with the generic code.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: msg}
}

// Forbidden builds a FORBIDDEN error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: msg}
}

// Internal wraps an infrastructure failure. The message is what clients see;
// err is only logged.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: msg, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for anything that is not an
// *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Well-known errors.
var (
	ErrInvalidCredentials           = New(KindUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	ErrInvalidOrExpiredRefreshToken = New(KindUnauthorized, "INVALID_OR_EXPIRED_REFRESH_TOKEN", "invalid or expired refresh token")
	ErrUnauthorized                 = New(KindUnauthorized, "UNAUTHORIZED", "unauthorized")

	ErrUserNotFound  = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrEmailTaken    = New(KindConflict, "EMAIL_TAKEN", "email already exists")
	ErrRoleForbidden = New(KindForbidden, "ROLE_CHANGE_FORBIDDEN", "only SUPER_ADMIN may change roles")

	ErrPrivilegedTarget = New(KindForbidden, "PRIVILEGED_USER", "only SUPER_ADMIN may modify another administrator")

	ErrEventNotFound     = New(KindNotFound, "EVENT_NOT_FOUND", "event not found")
	ErrCapacityBelowHeld = New(KindBusinessRule, "CAPACITY_BELOW_RESERVATIONS", "maxCapacity cannot be lower than the number of active reservations")

	// ErrEventNotAvailable is a business-rule rejection when the event exists
	// but is not OPEN; the reservation core returns it with KindNotFound when
	// the event is absent or soft-deleted.
	ErrEventNotAvailable    = New(KindBusinessRule, "EVENT_NOT_AVAILABLE", "event not found or not available for reservations")
	ErrDuplicateReservation = New(KindConflict, "DUPLICATE_RESERVATION", "user already has a reservation for this event")
	ErrCapacityExceeded     = New(KindBusinessRule, "CAPACITY_EXCEEDED", "event is at maximum capacity")
	ErrReservationNotFound  = New(KindNotFound, "RESERVATION_NOT_FOUND", "reservation not found or already cancelled")
	ErrEventAlreadyStarted  = New(KindBusinessRule, "EVENT_ALREADY_STARTED", "cannot cancel reservation for an event that has already started")

	ErrReviewNotFound  = New(KindNotFound, "REVIEW_NOT_FOUND", "review not found")
	ErrDuplicateReview = New(KindConflict, "DUPLICATE_REVIEW", "user already reviewed this event")
)
