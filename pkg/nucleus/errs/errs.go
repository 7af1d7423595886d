// Package errs collects the sentinel errors shared across the toolchain
// nucleus, so callers can classify a failure with errors.Is without
// reaching into each producing package.
package errs

import "errors"

var (
	// ErrIrForm is a verifier-detected structural violation of the IR.
	ErrIrForm = errors.New("ir form error")
	// ErrEncoding is an operand that is out of range, misaligned or invalid for an instruction.
	ErrEncoding = errors.New("encoding error")
	// ErrLink covers undefined/duplicate symbols, out-of-range relocations and section overflow.
	ErrLink = errors.New("link error")
	// ErrLayout is a malformed memory layout description.
	ErrLayout = errors.New("layout error")
	// ErrParse is a textual parse failure: IR, object file, assembly or
	// layout (a layout parse failure also matches ErrLayout).
	ErrParse = errors.New("parse error")
)
