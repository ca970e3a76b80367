package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the command front end
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindResource
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindResource:
		return "resource"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a user-facing error with a stable code.
// Two *Error values match under errors.Is when their codes are equal,
// so wrapped copies still compare equal to the sentinels below.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the caller may retry the same request
func (e *Error) Retryable() bool {
	return e.Kind == KindStorage
}

// Wrap returns a copy of e carrying cause
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// Withf returns a copy of e with a formatted message
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

var (
	ErrInvalidArgument = &Error{Kind: KindValidation, Code: "invalid_argument", Message: "invalid argument"}
	ErrInvalidDate     = &Error{Kind: KindValidation, Code: "invalid_date", Message: "invalid date"}
	ErrClinicClosed    = &Error{Kind: KindValidation, Code: "clinic_closed", Message: "clinic is closed on that date"}
	ErrTooManyDoses    = &Error{Kind: KindValidation, Code: "too_many_doses", Message: "dose count would exceed the inventory limit"}

	ErrNotLoggedIn        = &Error{Kind: KindAuth, Code: "not_logged_in", Message: "not logged in"}
	ErrAlreadyLoggedIn    = &Error{Kind: KindAuth, Code: "already_logged_in", Message: "user already logged in"}
	ErrWrongRole          = &Error{Kind: KindAuth, Code: "wrong_role", Message: "operation not permitted for this account type"}
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: "invalid_credentials", Message: "invalid username or password"}
	ErrTooManyAttempts    = &Error{Kind: KindAuth, Code: "too_many_attempts", Message: "too many login attempts"}

	ErrUsernameTaken        = &Error{Kind: KindResource, Code: "username_taken", Message: "username taken"}
	ErrNoCaregiverAvailable = &Error{Kind: KindResource, Code: "no_caregiver_available", Message: "no caregiver is available"}
	ErrOutOfStock           = &Error{Kind: KindResource, Code: "out_of_stock", Message: "not enough available doses"}
	ErrUnknownVaccine       = &Error{Kind: KindResource, Code: "unknown_vaccine", Message: "unknown vaccine"}
	ErrAlreadyUnavailable   = &Error{Kind: KindResource, Code: "already_unavailable", Message: "caregiver is already unavailable on that date"}
	ErrNotFound             = &Error{Kind: KindResource, Code: "not_found", Message: "appointment not found"}

	ErrStorageFailure = &Error{Kind: KindStorage, Code: "storage_failure", Message: "storage failure, please retry"}
)

// Storage wraps an unexpected store error as a retryable StorageFailure
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return ErrStorageFailure.Wrap(err)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}
