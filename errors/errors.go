// Package errors provides error handling for idlmap.
//
// This package re-exports github.com/cockroachdb/errors and adds the error
// taxonomy used by the generator and the compiler:
//   - ErrInvariant: an internal invariant of the engine was violated
//     (duplicate registration, a type that should be mapped is unknown,
//     a forward declaration of a kind that cannot be forward declared)
//   - ErrInvalidInput: the input type graph or IDL is illegal
//   - ErrUnsupported: a known construct that is not supported
//   - ErrDepthExceeded: the dependency chain is deeper than allowed
//
// Every error propagates to the caller; there is no partial success.
//
// Usage:
//
//	if errors.Is(err, errors.ErrInvalidInput) {
//	    // report to the user
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	Mark           = crdb.Mark
	GetAllHints    = crdb.GetAllHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf   = crdb.AssertionFailedf
	IsAssertionFailure = crdb.IsAssertionFailure
)

// Error taxonomy. Match with errors.Is.
var (
	// ErrInvariant marks violations of internal engine invariants.
	ErrInvariant = New("internal invariant violated")

	// ErrInvalidInput marks illegal type graphs and illegal IDL.
	ErrInvalidInput = New("invalid input")

	// ErrUnsupported marks constructs the mapper knows but does not handle.
	ErrUnsupported = New("unsupported")

	// ErrDepthExceeded is returned when the must-map-before chain exceeds the configured depth.
	ErrDepthExceeded = New("dependency depth exceeded")
)

// Invariantf returns an assertion failure marked with ErrInvariant.
func Invariantf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.AssertionFailedf(format, args...), ErrInvariant)
}

// InvalidInputf returns a new error marked with ErrInvalidInput.
func InvalidInputf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrInvalidInput)
}

// Unsupportedf returns a new error marked with ErrUnsupported.
func Unsupportedf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.NewWithDepthf(1, format, args...), ErrUnsupported)
}

// IsInvariant reports whether err is or wraps an invariant violation.
func IsInvariant(err error) bool {
	return crdb.Is(err, ErrInvariant)
}

// IsInvalidInput reports whether err is or wraps an input error.
func IsInvalidInput(err error) bool {
	return crdb.Is(err, ErrInvalidInput)
}
