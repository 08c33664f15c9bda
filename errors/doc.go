// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: path, Go/host type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindTagMismatch).
//		Path("arg0", "fst").
//		HostType("string").
//		Detail("tag 0, want 252").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TagMismatch(errors.PhaseDecode, path, 0, 252)
//	err := errors.OutOfBounds(errors.PhaseDecode, path, 3, 2)
//
// Contract violations are not returned. They are raised with Fatal, which
// panics with the *Error; AsFatal recovers the structured error from a
// recovered panic value.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
