// Package remote defines the failure taxonomy shared by every client of the watch-list and notes API.
package remote

import (
	"errors"
)

var (
	// ErrUnavailable is a transport or server failure. Nothing can be assumed about remote state.
	ErrUnavailable = errors.New("remote unavailable")
	// ErrDuplicate is returned when a uniqueness constraint is violated on the remote.
	ErrDuplicate = errors.New("duplicate on remote")
	// ErrForbidden is returned when the remote denies the caller.
	ErrForbidden = errors.New("forbidden by remote")
	// ErrNotFound is returned when the entity vanished on the remote since the last sync.
	ErrNotFound = errors.New("not found on remote")
)

// Kind names an entry of the taxonomy.
type Kind string

const (
	KindNone        Kind = ""
	KindUnavailable Kind = "unavailable"
	KindDuplicate   Kind = "duplicate"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
)

// KindOf classifies err. Errors outside the taxonomy are reported as unavailable.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindUnavailable
	}
}

// IsDrift reports whether err means the local view no longer matches the remote,
// in which case the affected collection has to be reloaded.
func IsDrift(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound)
}
