// Package diag carries the compiler's two-tier error taxonomy: user-facing
// compile errors with a source locus, and internal-invariant panics for
// codegen table misses that indicate a compiler bug rather than bad input.
package diag

import "fmt"

// Pos is a source locus (line/column, 1-based).
type Pos struct {
	Line, Col int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// CompileError is a user-facing error: bad syntax, an undeclared
// variable, or an operator/type mismatch. The driver prints it and
// exits nonzero; the core never recovers from one locally.
type CompileError struct {
	Pos Pos
	Msg string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Errorf builds a CompileError at pos.
func Errorf(pos Pos, format string, args ...any) *CompileError {
	return &CompileError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// TypeMismatch builds the *type-mismatch* error raised from expression
// construction (spec §6 error taxonomy).
func TypeMismatch(pos Pos, op string, a, b fmt.Stringer) *CompileError {
	return Errorf(pos, "type mismatch: operator %q cannot use operands %s and %s", op, a, b)
}

// Internal is the panic value raised when a classification table
// reaches a case it does not cover. It names the failing component and
// carries a free-text detail (which may state the case) so the
// top-level recover in the driver can print a clean diagnostic instead
// of a raw stack trace.
type Internal struct {
	Component string
	Detail    string
}

func (e *Internal) Error() string {
	return fmt.Sprintf("internal error in %s: %s", e.Component, e.Detail)
}

// Fatal panics with an *Internal describing a bad classification case.
// component is the stage name (e.g. "codegen.classify_binary"); detail
// is free text, typically naming the unmatched case shape.
func Fatal(component, format string, args ...any) {
	panic(&Internal{Component: component, Detail: fmt.Sprintf(format, args...)})
}
