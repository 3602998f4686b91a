package domain

import "errors"

// Error categories shared by every store implementation and the timer
// engine. Callers match them with errors.Is; concrete errors wrap one of
// these with context.
var (
	// ErrConflict means the write would break the single-active-entry rule.
	ErrConflict = errors.New("conflict")
	// ErrValidation means the request is invalid in the current state.
	ErrValidation = errors.New("invalid request")
	// ErrUnauthenticated means the caller could not be identified.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrTransient means the store could not be reached or was busy.
	ErrTransient = errors.New("temporary store failure")
)

// ErrorKind names the category of err for presentation ("conflict",
// "validation", "auth", "transient"), or "internal" when it has none.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthenticated):
		return "auth"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}
