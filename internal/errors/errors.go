// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Error kinds exposed by the service layer. Handlers map these to HTTP
// statuses; services never return raw gorm errors to callers.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidStatus  = errors.New("invalid status")
	ErrGroupFull      = errors.New("study group is full")
	ErrAlreadyMember  = errors.New("user is already a member")
	ErrDeletionFailed = errors.New("deletion failed")
	ErrInternal       = errors.New("internal error")
)

// kindError carries a kind sentinel plus the underlying cause so that
// errors.Is matches the kind and the cause stays on the chain for logging.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

// Wrap attaches a kind to a cause. Wrap(kind, nil) returns the bare kind.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return &kindError{kind: kind, cause: cause}
}

// Map converts repo/infra errors into the service error taxonomy.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Wrap(ErrInternal, err)

	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrGroupFull),
		errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrDeletionFailed),
		errors.Is(err, ErrInternal):
		return err

	default:
		return Wrap(ErrInternal, err)
	}
}

// HTTPStatus maps an error kind to the response status the route layer
// should use.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrGroupFull), errors.Is(err, ErrAlreadyMember):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
