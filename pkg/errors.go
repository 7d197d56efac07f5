// Package pkg holds helpers shared by every layer: domain errors and the
// JSON response envelope.
package pkg

import "errors"

// Domain errors. Services wrap them with context via fmt.Errorf("%w: ...")
// and handlers turn them into status codes with Error.
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrInternal      = errors.New("internal error")
)
