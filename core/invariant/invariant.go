// Package invariant provides contract checks for conditions that only fail
// when the compiler itself is wrong. A failed check panics with a *Violation;
// the pipeline driver recovers it and reports an internal compiler error.
package invariant

import (
	"fmt"
	"reflect"
)

// Kind names the contract that was broken.
type Kind string

const (
	KindPrecondition  Kind = "precondition"
	KindPostcondition Kind = "postcondition"
	KindInvariant     Kind = "invariant"
)

// Violation is the panic value of every failed check.
type Violation struct {
	Kind    Kind
	Message string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s violated: %s", v.Kind, v.Message)
}

// Precondition checks an input contract.
func Precondition(cond bool, format string, args ...any) {
	if !cond {
		fail(KindPrecondition, format, args...)
	}
}

// Postcondition checks an output contract.
func Postcondition(cond bool, format string, args ...any) {
	if !cond {
		fail(KindPostcondition, format, args...)
	}
}

// Invariant checks a condition that must hold in the middle of an algorithm,
// such as loop progress.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		fail(KindInvariant, format, args...)
	}
}

// NotNil fails when v is nil, including typed nils stored in an interface.
func NotNil(v any, name string) {
	if v == nil {
		fail(KindPrecondition, "%s must not be nil", name)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			fail(KindPrecondition, "%s must not be nil", name)
		}
	}
}

// AsViolation reports whether a recovered panic value is a contract failure.
func AsViolation(r any) (*Violation, bool) {
	v, ok := r.(*Violation)
	return v, ok
}

func fail(kind Kind, format string, args ...any) {
	panic(&Violation{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
