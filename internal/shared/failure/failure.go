// Package failure classifies the errors the shell surfaces to the page.
//
// Every user-actionable failure carries a Kind; handlers turn kinds into
// notices and HTTP statuses, domain code checks them with errors.Is.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the failure category
type Kind int

const (
	KindUnknown Kind = iota
	KindStorage
	KindMediaDecode
	KindEmbedLoad
	KindGeolocationDenied
	KindNetwork
	KindInvalidInput
	KindNotFound
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	case KindMediaDecode:
		return "media_decode"
	case KindEmbedLoad:
		return "embed_load"
	case KindGeolocationDenied:
		return "geolocation_denied"
	case KindNetwork:
		return "network"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

var (
	ErrStorage           = errors.New("storage failure")
	ErrMediaDecode       = errors.New("media decode failure")
	ErrEmbedLoad         = errors.New("embed load failure")
	ErrGeolocationDenied = errors.New("geolocation denied")
	ErrNetwork           = errors.New("network failure")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
)

var sentinels = map[Kind]error{
	KindStorage:           ErrStorage,
	KindMediaDecode:       ErrMediaDecode,
	KindEmbedLoad:         ErrEmbedLoad,
	KindGeolocationDenied: ErrGeolocationDenied,
	KindNetwork:           ErrNetwork,
	KindInvalidInput:      ErrInvalidInput,
	KindNotFound:          ErrNotFound,
}

// Error is a classified failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New wraps err with a kind and the operation that failed
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified failure from a format string
func Newf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// KindOf extracts the kind of err, KindUnknown when unclassified
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindUnknown
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
