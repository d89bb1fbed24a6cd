// Package apperror holds the typed errors the service returns to callers.
// Each carries the HTTP status and the message shown in the response envelope.
package apperror

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on status and message so wrapped copies compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Message == t.Message
}

// Wrap returns a copy of e that carries cause for logging.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Status: e.Status, Message: e.Message, Details: e.Details, Err: cause}
}

// WithDetails returns a copy of e carrying field-level details for the envelope.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Status: e.Status, Message: e.Message, Details: details, Err: e.Err}
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

var (
	ErrValidation             = New(http.StatusBadRequest, "validation failed")
	ErrDuplicateEmail         = New(http.StatusBadRequest, "email already registered")
	ErrNotFound               = New(http.StatusNotFound, "user not found")
	ErrInvalidCredentials     = New(http.StatusUnauthorized, "invalid email or password")
	ErrInvalidRole            = New(http.StatusForbidden, "invalid role")
	ErrInvalidOTP             = New(http.StatusBadRequest, "invalid OTP")
	ErrOTPExpired             = New(http.StatusBadRequest, "OTP has expired")
	ErrInvalidResetToken      = New(http.StatusBadRequest, "invalid or expired reset token")
	ErrInvalidCurrentPassword = New(http.StatusBadRequest, "current password is incorrect")
)

// As extracts the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
