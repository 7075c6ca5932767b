package service

import (
	"errors"

	"clubhub/internal/repo"
)

// Error kinds. Every error returned by the service matches exactly one of
// these with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage failure")
)

const (
	MsgAlreadyPending  = "A deletion request is already pending for this record"
	MsgAlreadyResolved = "This deletion request has already been resolved"
	MsgServerError     = "Service is currently unavailable. Please try again later."
)

// Error carries a message that is safe to show to the user.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// fromRepo classifies a repository error. Errors that are already
// classified pass through unchanged.
func fromRepo(err error, notFoundMsg string) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return err
	case errors.Is(err, repo.ErrNotFound):
		return &Error{Kind: ErrNotFound, Msg: notFoundMsg, Cause: err}
	case errors.Is(err, repo.ErrConflict):
		return &Error{Kind: ErrConflict, Msg: "Record already exists", Cause: err}
	case errors.Is(err, repo.ErrNotPending):
		return &Error{Kind: ErrConflict, Msg: MsgAlreadyResolved, Cause: err}
	case errors.Is(err, repo.ErrInvalidTimeSlot):
		return &Error{Kind: ErrValidation, Msg: "Time slot does not belong to this event or is inactive", Cause: err}
	}
	return &Error{Kind: ErrStorage, Msg: MsgServerError, Cause: err}
}
