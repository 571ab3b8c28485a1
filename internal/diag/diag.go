// Package diag implements the two fatal error kinds spec.md §7 defines for
// the compile-and-execute core: CompileError and RuntimeError. Both capture
// the offending name and the Go call site that raised them, in the style
// ProbeChain (go-probeum) annotates its fatal log lines with
// github.com/go-stack/stack.
package diag

import (
	"fmt"

	"github.com/go-stack/stack"
)

// CompileError is fatal: unresolved name, incompatible CONST types,
// unresolved function/method, invalid template arity, constant division by
// zero (spec.md §7).
type CompileError struct {
	Message string
	Site    stack.Call
}

func NewCompileError(format string, args ...interface{}) *CompileError {
	return &CompileError{Message: fmt.Sprintf(format, args...), Site: callerOf(1)}
}

func (e *CompileError) Error() string { return "Compile error: " + e.Message }

// RuntimeError is fatal: division by zero on non-constant operands, a
// method receiver of the wrong type, FCALL to a nulled callable.
type RuntimeError struct {
	Message string
	Site    stack.Call
}

func NewRuntimeError(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Site: callerOf(1)}
}

func (e *RuntimeError) Error() string { return "Runtime error: " + e.Message }

func callerOf(skip int) stack.Call {
	return stack.Caller(skip + 1)
}

// Sink accumulates diagnostics, mirroring the teacher's
// internal/diagnostics collection point, so a host can collect more than
// one error. Nothing in this repo reports through it: the code generator
// and the VM return their first error directly and stop there.
type Sink struct {
	entries []error
}

func (s *Sink) Report(err error) { s.entries = append(s.entries, err) }
func (s *Sink) HasErrors() bool  { return len(s.entries) > 0 }
func (s *Sink) First() error {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[0]
}
func (s *Sink) All() []error { return s.entries }
