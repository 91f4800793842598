// Package apperr defines the error kinds shared by the store gateway, the
// lifecycle engine and the check aggregator.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid state")
	ErrValidation        = errors.New("validation failed")
	ErrUnavailable       = errors.New("remote store unavailable")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnauthenticated   = errors.New("not authenticated")
)

var kinds = []error{
	ErrNotFound,
	ErrInsufficientStock,
	ErrInvalidState,
	ErrValidation,
	ErrUnavailable,
	ErrPermissionDenied,
	ErrUnauthenticated,
}

// Error carries the failing operation, its kind and the entity it concerns
// (usually "name (code)" of a product, a supplier or a document id).
type Error struct {
	Op     string
	Kind   error
	Entity string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Entity)
	}
	if e.Err != nil && !errors.Is(e.Err, e.Kind) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(op string, kind error, entity string) *Error {
	return &Error{Op: op, Kind: kind, Entity: entity}
}

func Wrap(op string, kind error, entity string, err error) *Error {
	return &Error{Op: op, Kind: kind, Entity: entity, Err: err}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Entity returns the entity of the outermost *Error in err's chain.
func Entity(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Entity
	}
	return ""
}
