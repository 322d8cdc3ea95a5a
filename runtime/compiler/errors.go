package compiler

import (
	"fmt"

	"github.com/aledsdavies/minicc/runtime/lexer"
)

// InternalError wraps a fault that indicates a compiler bug rather than bad
// input: fuel exhaustion, a malformed event log, a tree lowering does not
// recognize, or any other invariant violation.
type InternalError struct {
	Stage Stage
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error during %s: %v", e.Stage, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// LexicalErrors reports every unrecognized character found in the input.
type LexicalErrors struct {
	Errors []lexer.LexError
}

func (e *LexicalErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more lexical errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Unwrap exposes each *lexer.LexError to errors.As.
func (e *LexicalErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i := range e.Errors {
		errs[i] = &e.Errors[i]
	}
	return errs
}
