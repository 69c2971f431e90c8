package types

import "errors"

// Error kinds returned by the social engine. Callers wrap them with context and match
// with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("conflict")
	ErrUnavailable      = errors.New("unavailable")
)

// ErrorKind returns the short name of the first error kind err wraps, or "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrInvalidOperation):
		return "InvalidOperation"
	case errors.Is(err, ErrInvalidArgument):
		return "InvalidArgument"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	case errors.Is(err, ErrUnavailable):
		return "Unavailable"
	default:
		return "Internal"
	}
}
