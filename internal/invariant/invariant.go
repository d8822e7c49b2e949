// Package invariant provides the precondition checks used by the dispatcher.
//
// A violated check produces a described violation: a message naming the
// broken precondition, optionally wrapping the error kind it maps to so
// callers can match it with errors.Is and errors.As. Checks have no state
// and no side effect when the condition holds.
package invariant

import "fmt"

// Violation describes a failed precondition check.
type Violation struct {
	// Cause is the error kind the violation maps to, if any.
	Cause error

	// Message names the precondition that did not hold.
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return "invariant violation: " + v.Message
}

// Unwrap returns the error kind the violation maps to.
func (v *Violation) Unwrap() error {
	return v.Cause
}

// Check returns nil when cond holds. Otherwise it returns a *Violation
// carrying the formatted message and wrapping cause.
func Check(cond bool, cause error, format string, args ...any) error {
	if cond {
		return nil
	}
	return &Violation{Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// Assert panics with a described violation when cond is false. It is
// reserved for programmer errors that no caller should handle at runtime,
// such as registering a nil callback.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic("invariant violation: " + fmt.Sprintf(format, args...))
	}
}
