// Package service implements the session registry, the registration ledger
// and account administration.  Every operation receives the caller
// explicitly and performs its own authorization before touching storage.
package service

import (
    "errors"
    "fmt"

    "github.com/iliyamo/badminton-scheduler/internal/model"
)

// Error kinds.  Use errors.Is(err, ErrNotFound) and friends to classify a
// service error; the handler layer maps each kind to an HTTP status.
var (
    ErrUnauthorized = errors.New("unauthorized")
    ErrForbidden    = errors.New("forbidden")
    ErrNotFound     = errors.New("not_found")
    ErrConflict     = errors.New("conflict")
    ErrValidation   = errors.New("validation")
)

// Error is a classified failure with a message safe to show to clients.
type Error struct {
    Kind error
    Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
    return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func unauthorized() error { return newError(ErrUnauthorized, "authentication required") }

func forbidden(msg string) error { return newError(ErrForbidden, "%s", msg) }

func notFound(what string) error { return newError(ErrNotFound, "%s not found", what) }

func conflict(msg string) error { return newError(ErrConflict, "%s", msg) }

func invalid(format string, args ...any) error { return newError(ErrValidation, format, args...) }

// requireMember checks that the caller is signed in and approved (admins
// pass without approval).
func requireMember(c model.Caller) error {
    if !c.Authenticated() {
        return unauthorized()
    }
    if !c.Member() {
        return forbidden("account pending approval")
    }
    return nil
}

// requireAdmin checks that the caller holds administrator rights.
func requireAdmin(c model.Caller) error {
    if !c.Authenticated() {
        return unauthorized()
    }
    if !c.Admin() {
        return forbidden("administrator rights required")
    }
    return nil
}
