// Package errdef classifies the errors the provisioning engine reports to
// operators. Callers test the class of an error using the IsX predicates
// rather than matching on message text.
package errdef

import (
	"errors"
	"fmt"
)

// NewConflict creates an error representing a state conflict, such as a course
// that already exists.
func NewConflict(format string, a ...any) error {
	return conflict{fmt.Errorf(format, a...)}
}

type conflict struct{ error }

// IsConflict returns true if err represents a conflicting state and false otherwise.
func IsConflict(err error) bool {
	var e conflict
	return errors.As(err, &e)
}

// NewNotFound creates an error representing a resource that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err represents a resource that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// NewBadRequest creates an error representing an invalid or incomplete request,
// such as a missing required parameter.
func NewBadRequest(format string, a ...any) error {
	return badRequest{fmt.Errorf(format, a...)}
}

type badRequest struct{ error }

// IsBadRequest returns true if err represents an invalid request and false otherwise.
func IsBadRequest(err error) bool {
	var e badRequest
	return errors.As(err, &e)
}

// NewMalformed creates an error representing input or persisted state that
// could not be parsed, such as a bad import header or a corrupted port counter.
func NewMalformed(format string, a ...any) error {
	return malformed{fmt.Errorf(format, a...)}
}

type malformed struct{ error }

// IsMalformed returns true if err represents unparsable input or state and false otherwise.
func IsMalformed(err error) bool {
	var e malformed
	return errors.As(err, &e)
}

// IsDomain returns true if err belongs to any of the classes above. Domain
// errors are reported as a short message at the command boundary; everything
// else is surfaced with full detail.
func IsDomain(err error) bool {
	return IsConflict(err) || IsNotFound(err) || IsBadRequest(err) || IsMalformed(err)
}
